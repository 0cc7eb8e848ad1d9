package resolve

import (
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// readInfo takes a fresh snapshot of n. When n carries no label of its own
// the nearest labelled ancestor supplies one.
func readInfo(r platform.TreeReader, n platform.Node) *model.LiveElementInfo {
	if n == nil {
		return nil
	}
	info := &model.LiveElementInfo{
		Role:            platform.Role(r, n),
		Subrole:         platform.StringAttr(r, n, platform.AttrSubrole),
		RoleDescription: platform.StringAttr(r, n, platform.AttrRoleDescription),
		Title:           strings.TrimSpace(platform.StringAttr(r, n, platform.AttrTitle)),
		Value:           platform.StringAttr(r, n, platform.AttrValue),
		Description:     platform.StringAttr(r, n, platform.AttrDescription),
		Help:            platform.StringAttr(r, n, platform.AttrHelp),
		Placeholder:     platform.StringAttr(r, n, platform.AttrPlaceholder),
		Identifier:      platform.StringAttr(r, n, platform.AttrIdentifier),
		Actions:         r.Actions(n),
	}
	if f, ok := platform.Frame(r, n); ok {
		info.Frame = &f
	}
	if p, ok := platform.PointAttr(r, n, platform.AttrActivationPoint); ok {
		info.ActivationPoint = &p
	}
	if b, ok := platform.BoolAttr(r, n, platform.AttrEnabled); ok {
		info.Enabled = b
	} else {
		info.Enabled = true
	}
	info.Focused, _ = platform.BoolAttr(r, n, platform.AttrFocused)

	info.BestLabel = model.LabelFromAttributes(info.Title, info.Description, info.Value, info.Help)
	if info.BestLabel == "" {
		info.BestLabel = titleElementLabel(r, n)
	}
	for p, hops := r.Parent(n), 1; info.BestLabel == "" && p != nil && hops < MaxLabelParentHops; p, hops = r.Parent(p), hops+1 {
		info.BestLabel = nodeLabel(r, p)
		if info.Role == "" {
			info.Role = platform.Role(r, p)
		}
	}
	return info
}

func nodeLabel(r platform.TreeReader, n platform.Node) string {
	return model.LabelFromAttributes(
		platform.StringAttr(r, n, platform.AttrTitle),
		platform.StringAttr(r, n, platform.AttrDescription),
		platform.StringAttr(r, n, platform.AttrValue),
		platform.StringAttr(r, n, platform.AttrHelp),
	)
}

func titleElementLabel(r platform.TreeReader, n platform.Node) string {
	t := platform.NodeAttr(r, n, platform.AttrTitleElement)
	if t == nil {
		return ""
	}
	return model.LabelFromAttributes(
		platform.StringAttr(r, t, platform.AttrTitle),
		platform.StringAttr(r, t, platform.AttrValue),
		platform.StringAttr(r, t, platform.AttrDescription),
		"",
	)
}

// infoCache hands out per-search integer handles and caches one snapshot per
// handle. It lives for a single search call.
type infoCache struct {
	r       platform.TreeReader
	handles map[platform.Node]int
	nodes   []platform.Node
	infos   []*model.LiveElementInfo
}

func newInfoCache(r platform.TreeReader) *infoCache {
	return &infoCache{r: r, handles: make(map[platform.Node]int)}
}

// handle returns n's handle, assigning the next one on first sight.
func (c *infoCache) handle(n platform.Node) int {
	if h, ok := c.handles[n]; ok {
		return h
	}
	h := len(c.nodes)
	c.handles[n] = h
	c.nodes = append(c.nodes, n)
	c.infos = append(c.infos, nil)
	return h
}

func (c *infoCache) info(n platform.Node) *model.LiveElementInfo {
	h := c.handle(n)
	if c.infos[h] == nil {
		c.infos[h] = readInfo(c.r, n)
	}
	return c.infos[h]
}

func (c *infoCache) node(h int) platform.Node {
	return c.nodes[h]
}

// ancestorWithRole walks up from n (inclusive) to the first node whose role
// is in roles, giving up after limit hops.
func ancestorWithRole(r platform.TreeReader, n platform.Node, limit int, roles ...string) platform.Node {
	for cur, hops := n, 0; cur != nil && hops < limit; cur, hops = r.Parent(cur), hops+1 {
		role := platform.Role(r, cur)
		for _, want := range roles {
			if role == want {
				return cur
			}
		}
	}
	return nil
}

// nearestWindow returns n's owning window.
func nearestWindow(r platform.TreeReader, n platform.Node) platform.Node {
	if w := ancestorWithRole(r, n, 12, "AXWindow"); w != nil {
		return w
	}
	return platform.NodeAttr(r, n, platform.AttrWindow)
}

// validActivation returns the element's activation point when it lies within
// spread element sizes of the frame center and is not a bogus edge coordinate.
func validActivation(info *model.LiveElementInfo, spread float64, edge func(model.Point) bool) (model.Point, bool) {
	if info == nil || info.ActivationPoint == nil {
		return model.Point{}, false
	}
	ap := *info.ActivationPoint
	if edge(ap) {
		return model.Point{}, false
	}
	if info.Frame != nil {
		c := info.Frame.Center()
		if abs(ap.X-c.X) > info.Frame.W*spread || abs(ap.Y-c.Y) > info.Frame.H*spread {
			return model.Point{}, false
		}
	}
	return ap, true
}

// cornerEdge rejects points pinned to the bottom-left screen corner.
func cornerEdge(p model.Point) bool {
	return p.X <= EdgeMaxX && p.Y >= EdgeMinY
}

// borderEdge rejects points on the left edge or near the screen bottom.
func borderEdge(p model.Point) bool {
	return p.X <= EdgeMaxX || p.Y >= QuickEdgeMinY
}

// safePoint is a validated activation point, else the frame center.
func safePoint(info *model.LiveElementInfo) (model.Point, bool) {
	if ap, ok := validActivation(info, ActivationSpread, func(model.Point) bool { return false }); ok {
		return ap, true
	}
	if info != nil && info.Frame != nil {
		return info.Frame.Center(), true
	}
	return model.Point{}, false
}

// strictPoint applies the tighter rules used when clicking a search result:
// activation point within three sizes and off the screen border, else the
// frame center.
func strictPoint(info *model.LiveElementInfo) (model.Point, bool) {
	if ap, ok := validActivation(info, QuickActivationRange, borderEdge); ok {
		return ap, true
	}
	if info != nil && info.Frame != nil {
		return info.Frame.Center(), true
	}
	return model.Point{}, false
}

// biasedPoint offsets toggle-like controls toward their leading edge so the
// click lands on the control rather than its trailing text.
func biasedPoint(info *model.LiveElementInfo) (model.Point, bool) {
	if info == nil || info.Frame == nil {
		return model.Point{}, false
	}
	f := *info.Frame
	if !model.BiasedClickRoles.Has(info.Role) {
		return f.Center(), true
	}
	inset := BiasedInsetRatio * f.W
	if inset > BiasedInsetMax {
		inset = BiasedInsetMax
	}
	return model.Point{X: f.X + inset, Y: f.Y + f.H/2}, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package resolve

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
	"github.com/mj1618/desktop-replay/internal/recording"
)

// SchemaVersion is stamped on every captured signature.
const SchemaVersion = "1.0"

const recordedAtLayout = "2006-01-02 15:04:05"

// Session captures recorded signatures from live clicks into a buffer.
// It is safe for concurrent use.
type Session struct {
	ID uuid.UUID

	p   *platform.Provider
	now func() time.Time

	mu      sync.Mutex
	buffer  []model.RecordedSignature
	stopped atomic.Bool
}

// NewSession starts an empty capture session.
func NewSession(p *platform.Provider) *Session {
	return &Session{ID: uuid.New(), p: p, now: time.Now}
}

// Inspect captures the signature of the element under (x, y). With save the
// signature is appended to the buffer and stamped with its click index.
func (s *Session) Inspect(ctx context.Context, x, y float64, save bool) (*model.RecordedSignature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Stopped() {
		return nil, fmt.Errorf("session %s is stopped", s.ID)
	}
	n, err := s.p.HitTester.ElementAt(x, y)
	if err != nil {
		return nil, &Error{Stage: StageInput, Code: ErrNoElement, Cause: err}
	}
	if n == nil {
		return nil, stageErr(StageInput, ErrNoElement, fmt.Sprintf("nothing at (%.0f, %.0f)", x, y))
	}
	sig := s.capture(n, model.Point{X: x, Y: y})
	if save {
		s.mu.Lock()
		sig.RecordedAt = s.now().Format(recordedAtLayout)
		sig.SchemaVersion = SchemaVersion
		sig.ClickIndex = len(s.buffer)
		s.buffer = append(s.buffer, *sig)
		s.mu.Unlock()
	}
	return sig, nil
}

// capture builds a signature for n, first moving to a labelled interactive
// descendant of an unlabelled container, then climbing to a labelled
// clickable ancestor.
func (s *Session) capture(n platform.Node, at model.Point) *model.RecordedSignature {
	r := s.p.Reader
	n = pickDescendant(r, n)
	if !isLabelledClickable(r, n) {
		for cur, hops := r.Parent(n), 0; cur != nil && hops < MaxInspectClimb; cur, hops = r.Parent(cur), hops+1 {
			if isLabelledClickable(r, cur) {
				n = cur
				break
			}
		}
	}

	info := readInfo(r, n)
	sig := &model.RecordedSignature{
		Role:            info.Role,
		Subrole:         info.Subrole,
		RoleDescription: info.RoleDescription,
		Title:           info.Title,
		Description:     info.Description,
		Value:           info.Value,
		Help:            info.Help,
		Placeholder:     info.Placeholder,
		Identifier:      info.Identifier,
		Frame:           info.Frame,
		Actions:         info.Actions,
		Enabled:         info.Enabled,
		Focused:         info.Focused,
		Clickable:       info.IsClickable(),
		RawClickPoint:   &at,
		RawLabels: &model.RawLabels{
			Title:       info.Title,
			Value:       info.Value,
			Description: info.Description,
			Help:        info.Help,
			Placeholder: info.Placeholder,
			Identifier:  info.Identifier,
		},
	}
	if ap, ok := validActivation(info, ActivationSpread, cornerEdge); ok {
		sig.ActivationPoint = &ap
	}
	click := at
	switch {
	case sig.ActivationPoint != nil:
		click = *sig.ActivationPoint
	case info.Frame != nil:
		click = info.Frame.Center()
	}
	sig.ClickPoint = &click

	for cur, i := r.Parent(n), 0; cur != nil && i < MaxParentChain; cur, i = r.Parent(cur), i+1 {
		sig.ParentChain = append(sig.ParentChain, model.ParentRef{
			Role:  platform.Role(r, cur),
			Title: axLabel(r, cur),
		})
	}

	if w := nearestWindow(r, n); w != nil {
		sig.WindowTitle = platform.StringAttr(r, w, platform.AttrTitle)
		if f, ok := platform.Frame(r, w); ok {
			sig.WindowFrame = &f
			frac := f.FractionOf(click)
			sig.ClickFrac = &frac
		}
	}
	if app := ancestorWithRole(r, n, 64, "AXApplication"); app != nil {
		sig.AppName = platform.StringAttr(r, app, platform.AttrTitle)
		sig.PID = s.pidOf(app)
	}

	sig.BestLabel = info.BestLabel
	if model.LabelFromAttributes(info.Title, info.Description, info.Value, info.Help) == "" {
		sig.BestLabel = ""
		for _, p := range sig.ParentChain {
			if !model.IsTrivialLabel(p.Title) {
				sig.BestLabel = strings.ToLower(strings.TrimSpace(p.Title))
				break
			}
		}
		if sig.BestLabel == "" && sig.WindowTitle != "" {
			sig.BestLabel = strings.ToLower(strings.TrimSpace(sig.WindowTitle))
		}
	}
	return sig
}

func (s *Session) pidOf(appNode platform.Node) int {
	apps, err := s.p.Apps.RunningApps()
	if err != nil {
		return 0
	}
	for _, a := range apps {
		if root, err := s.p.Apps.ApplicationNode(a.PID); err == nil && root == appNode {
			return a.PID
		}
	}
	return 0
}

// ownLabel is the first raw label attribute of n, then its title element.
func ownLabel(r platform.TreeReader, n platform.Node) string {
	for _, attr := range []string{
		platform.AttrTitle, platform.AttrValue, platform.AttrDescription,
		platform.AttrHelp, platform.AttrPlaceholder, platform.AttrIdentifier,
	} {
		if v := strings.TrimSpace(platform.StringAttr(r, n, attr)); v != "" {
			return v
		}
	}
	return titleElementLabel(r, n)
}

// axLabel is ownLabel, falling back for containers to the label of an
// interactive child.
func axLabel(r platform.TreeReader, n platform.Node) string {
	if l := ownLabel(r, n); l != "" {
		return l
	}
	if model.ContainerRoles.Has(platform.Role(r, n)) {
		for _, ch := range r.Children(n) {
			if isInteractive(r, ch) {
				if l := axLabel(r, ch); l != "" {
					return l
				}
			}
		}
	}
	return ""
}

func isInteractive(r platform.TreeReader, n platform.Node) bool {
	role := platform.Role(r, n)
	return model.InteractiveRoles.Has(role) || platform.HasAction(r, n, model.ActionPress)
}

func isLabelledClickable(r platform.TreeReader, n platform.Node) bool {
	role := platform.Role(r, n)
	clickable := model.ClickableRoles.Has(role) || platform.HasAction(r, n, model.ActionPress)
	return clickable && axLabel(r, n) != ""
}

// pickDescendant replaces an unlabelled container with the first labelled
// interactive element within MaxDescendantSearch levels.
func pickDescendant(r platform.TreeReader, n platform.Node) platform.Node {
	if ownLabel(r, n) != "" || !model.ContainerRoles.Has(platform.Role(r, n)) {
		return n
	}
	type item struct {
		n platform.Node
		d int
	}
	queue := []item{{n, 0}}
	var fallback platform.Node
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		if it.d > 0 && isInteractive(r, it.n) {
			if axLabel(r, it.n) != "" {
				return it.n
			}
			if fallback == nil {
				fallback = it.n
			}
		}
		if it.d < MaxDescendantSearch {
			for _, ch := range r.Children(it.n) {
				queue = append(queue, item{ch, it.d + 1})
			}
		}
	}
	if fallback != nil {
		return fallback
	}
	return n
}

// Buffer returns a copy of the captured signatures.
func (s *Session) Buffer() []model.RecordedSignature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RecordedSignature(nil), s.buffer...)
}

// Len returns the number of captured signatures.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// Save writes the buffer to path as a recording.
func (s *Session) Save(path string) error {
	return recording.Save(path, s.Buffer())
}

// Clear empties the buffer.
func (s *Session) Clear() {
	s.mu.Lock()
	s.buffer = nil
	s.mu.Unlock()
}

// Stop ends the session; later Inspect calls fail.
func (s *Session) Stop() {
	s.stopped.Store(true)
}

// Stopped reports whether Stop was called.
func (s *Session) Stopped() bool {
	return s.stopped.Load()
}

package resolve

import (
	"log/slog"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// hitResult is an element under a point with its comparison state.
type hitResult struct {
	Point      model.Point
	Node       platform.Node
	Info       *model.LiveElementInfo
	Mismatches model.MismatchSet
	Source     string
}

func (h *hitResult) found() bool {
	return h != nil && h.Node != nil
}

// microRefine improves a preflight hit. Containers, elements without a press
// action and label or role mismatches first try the best direct child, kept
// only when it mismatches no more than the seed; otherwise a wide neighbor
// scan runs.
func (a *attempt) microRefine(seed hitResult) hitResult {
	if !seed.found() {
		seed.Source = "none"
		return seed
	}
	needChild := seed.Info.Role == "AXGroup" || !seed.Info.HasPress() ||
		seed.Mismatches.Has(model.DimBestLabel) || seed.Mismatches.Has(model.DimRole)
	if needChild {
		if child, ok := a.pickChild(seed.Node); ok && len(child.Mismatches) <= len(seed.Mismatches) {
			if child.Info.Frame != nil {
				child.Point = child.Info.Frame.Center()
			} else {
				child.Point = seed.Point
			}
			child.Source = "child"
			a.log.Debug("micro: child descent", slog.String("point", child.Point.String()),
				slog.String("role", child.Info.Role), slog.Int("mismatches", len(child.Mismatches)))
			return child
		}
	}
	cfg := a.e.cfg.Neighbor
	if n, ok := a.neighborScan(seed.Point, cfg.Radius, cfg.Step); ok {
		n.Source = "neighbor"
		a.log.Debug("micro: neighbor scan", slog.String("point", n.Point.String()), slog.Int("mismatches", len(n.Mismatches)))
		return n
	}
	seed.Source = "none"
	return seed
}

// pickChild scores the direct children of parent; lower is better.
func (a *attempt) pickChild(parent platform.Node) (hitResult, bool) {
	r := a.e.p.Reader
	recLabel := a.rec.BestLabel
	if recLabel == "" {
		recLabel = a.rec.Title
	}
	var best hitResult
	bestScore, found := 0, false
	for _, ch := range r.Children(parent) {
		info := readInfo(r, ch)
		mism := a.compare(info)
		score := len(mism) * ChildMismatchCost
		if a.rec.Role != "" && a.rec.Role == info.Role {
			score -= ChildRoleBonus
		}
		if recLabel != "" && model.NormText(recLabel) == model.NormText(info.BestLabel) {
			score -= ChildLabelBonus
		}
		if info.HasPress() {
			score -= ChildPressBonus
		}
		if !found || score < bestScore {
			best = hitResult{Node: ch, Info: info, Mismatches: mism}
			bestScore, found = score, true
		}
	}
	return best, found
}

// neighborScan hit-tests a square grid around seed and keeps the candidate
// with the lowest mismatches*100 + distance. A perfect match returns at once.
func (a *attempt) neighborScan(seed model.Point, radius, step int) (hitResult, bool) {
	if step <= 0 {
		step = 1
	}
	var best hitResult
	bestScore, found := 0.0, false
	for dx := -radius; dx <= radius; dx += step {
		for dy := -radius; dy <= radius; dy += step {
			if a.ctx.Err() != nil {
				return best, found
			}
			p := model.Point{X: seed.X + float64(dx), Y: seed.Y + float64(dy)}
			h, err := a.hit(p)
			if err != nil || !h.found() {
				continue
			}
			score := float64(len(h.Mismatches)*NeighborMismatchCost) + model.Dist(seed, p)
			if !found || score < bestScore {
				best, bestScore, found = h, score, true
			}
			if len(h.Mismatches) == 0 {
				return h, true
			}
		}
	}
	return best, found
}

// evaluateCandidates tries the element's activation point, frame center and
// the refined point. The first perfect hit wins; otherwise the fewest
// mismatches then the nearest to seed. A tight neighbor snap runs when the
// winner still mismatches, and the refined point is the last resort.
func (a *attempt) evaluateCandidates(cur hitResult) hitResult {
	var cands []hitResult
	if cur.Info != nil && cur.Info.ActivationPoint != nil {
		cands = append(cands, hitResult{Point: *cur.Info.ActivationPoint, Source: "activation_point"})
	}
	if cur.Info != nil && cur.Info.Frame != nil {
		cands = append(cands, hitResult{Point: cur.Info.Frame.Center(), Source: "frame_center"})
	}
	cands = append(cands, hitResult{Point: cur.Point, Source: "validated_point"})
	for _, c := range cands {
		a.diag.addCandidate(c.Point)
	}

	var best *hitResult
	bestDist := 0.0
	for _, c := range cands {
		h, err := a.hit(c.Point)
		if err != nil || !h.found() {
			continue
		}
		if isUnpressableShell(h.Info) {
			a.ensureFrontmost()
			if h, err = a.hit(c.Point); err != nil || !h.found() {
				continue
			}
		}
		h.Source = c.Source
		if len(h.Mismatches) == 0 {
			a.log.Debug("candidates: accepted", slog.String("source", h.Source), slog.String("point", h.Point.String()))
			return h
		}
		d := model.Dist(h.Point, cur.Point)
		if best == nil || len(h.Mismatches) < len(best.Mismatches) ||
			(len(h.Mismatches) == len(best.Mismatches) && d < bestDist) {
			hc := h
			best, bestDist = &hc, d
		}
	}

	seed := cur.Point
	if cur.Info != nil && cur.Info.ActivationPoint != nil {
		seed = *cur.Info.ActivationPoint
	} else if cur.Info != nil && cur.Info.Frame != nil {
		seed = cur.Info.Frame.Center()
	}
	cfg := a.e.cfg.Neighbor
	if snap, ok := a.neighborScan(seed, cfg.TightRadius, cfg.TightStep); ok && len(snap.Mismatches) == 0 {
		snap.Source = "neighbor_snap"
		a.log.Debug("candidates: neighbor snap", slog.String("point", snap.Point.String()))
		return snap
	}
	if best != nil {
		a.log.Debug("candidates: best effort", slog.String("source", best.Source), slog.Int("mismatches", len(best.Mismatches)))
		return *best
	}
	cur.Source = "fallback_validated"
	return cur
}

// isUnpressableShell reports a window or group hit without a press action,
// which usually means the application is not frontmost.
func isUnpressableShell(info *model.LiveElementInfo) bool {
	return info != nil && (info.Role == "AXWindow" || info.Role == "AXGroup") && !info.HasPress()
}

package resolve

import (
	"context"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// QuickMatch is the outcome of a quick tree resolve.
type QuickMatch struct {
	Node    platform.Node
	Info    *model.LiveElementInfo
	Score   float64
	Visited int
}

// QuickResolve walks the tree under root breadth-first without
// prioritisation, keeping the element with the highest soft score. It stops
// at maxDepth levels below root or after maxNodes visits.
func QuickResolve(ctx context.Context, r platform.TreeReader, rec *model.RecordedSignature, root platform.Node, maxDepth, maxNodes int) QuickMatch {
	best := QuickMatch{Score: -1}
	if root == nil {
		return best
	}
	type item struct {
		n platform.Node
		d int
	}
	queue := []item{{root, 0}}
	for len(queue) > 0 && best.Visited < maxNodes {
		if ctx.Err() != nil {
			break
		}
		it := queue[0]
		queue = queue[1:]
		best.Visited++
		info := readInfo(r, it.n)
		if sc := model.SoftScore(rec, info); sc > best.Score {
			best.Node, best.Info, best.Score = it.n, info, sc
		}
		if it.d < maxDepth {
			for _, ch := range r.Children(it.n) {
				queue = append(queue, item{ch, it.d + 1})
			}
		}
	}
	return best
}

// quickPoint re-derives a click point for a quick match: the activation point
// when plausible, else the frame center.
func quickPoint(info *model.LiveElementInfo) (model.Point, bool) {
	return strictPoint(info)
}

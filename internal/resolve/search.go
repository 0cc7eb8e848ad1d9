package resolve

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// SearchParams bounds one adaptive search.
type SearchParams struct {
	Root platform.Node
	// RootWindow, when set, restricts matches to elements owned by it.
	RootWindow  platform.Node
	WindowFrame *model.Rect
	MaxDepth    int
	MaxNodes    int
	TimeBudget  time.Duration
	// AllowedRoles limits soft candidates; nil allows every role.
	AllowedRoles model.RoleSet
}

// SearchResult is the best element found. Score is 1 for a strict match.
type SearchResult struct {
	Node     platform.Node
	Info     *model.LiveElementInfo
	Score    float64
	Strict   bool
	Visited  int
	PoolSize int
	Phases   int
	TimedOut bool
}

// Found reports whether any element was selected.
func (r SearchResult) Found() bool {
	return r.Node != nil
}

// Searcher runs budgeted, prioritised tree searches.
type Searcher struct {
	r      platform.TreeReader
	now    func() time.Time
	tracer trace.Tracer
	logger *slog.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithSearchClock replaces the wall clock used for the time budget.
func WithSearchClock(now func() time.Time) SearcherOption {
	return func(s *Searcher) { s.now = now }
}

// WithSearchTracer sets the tracer for search spans.
func WithSearchTracer(t trace.Tracer) SearcherOption {
	return func(s *Searcher) { s.tracer = t }
}

// WithSearchLogger sets the logger for phase summaries.
func WithSearchLogger(l *slog.Logger) SearcherOption {
	return func(s *Searcher) { s.logger = l }
}

// NewSearcher returns a Searcher reading through r.
func NewSearcher(r platform.TreeReader, opts ...SearcherOption) *Searcher {
	s := &Searcher{r: r, now: time.Now, tracer: defaultTracer(), logger: discardLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// searchNode is one queue entry. seq breaks priority ties in push order.
// A leaf entry is a child of a bulk container: it is scored but never
// expanded.
type searchNode struct {
	handle   int
	depth    int
	priority float64
	seq      int
	leaf     bool
}

type nodeQueue []searchNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(searchNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}

// searchRun is the state of one Search call. Its cache is dropped with it.
type searchRun struct {
	s        *Searcher
	ctx      context.Context
	rec      *model.RecordedSignature
	p        SearchParams
	cache    *infoCache
	deadline time.Time
	target   *model.Point
	recKey   string
	timedOut bool
	seq      int
}

type phaseResult struct {
	best      int
	bestScore float64
	pool      []int
	visited   int
}

// Search looks for rec under p.Root. Phase one spends the whole node budget
// with the full priority model. Unless it produced a strict match or a soft
// score of at least HighConfidenceScore, phase two repeats with half the
// remaining budget, and phase three falls back to role-class priorities while
// confidence stays below LowConfidenceScore. The time budget ends every phase.
func (s *Searcher) Search(ctx context.Context, rec *model.RecordedSignature, p SearchParams) SearchResult {
	ctx, span := s.tracer.Start(ctx, "resolve.Searcher.Search",
		trace.WithAttributes(
			attribute.Int("search.max_nodes", p.MaxNodes),
			attribute.Int("search.max_depth", p.MaxDepth),
		),
	)
	defer span.End()

	if p.Root == nil || p.MaxNodes <= 0 {
		return SearchResult{}
	}
	run := &searchRun{
		s:        s,
		ctx:      ctx,
		rec:      rec,
		p:        p,
		cache:    newInfoCache(s.r),
		deadline: s.now().Add(p.TimeBudget),
	}
	if rec.ClickFrac != nil && p.WindowFrame != nil {
		t := p.WindowFrame.At(*rec.ClickFrac)
		run.target = &t
	}
	run.recKey = model.NormText(rec.Title)
	if run.recKey == "" {
		run.recKey = model.NormText(rec.BestLabel)
	}

	var (
		pool      []int
		inPool    = make(map[int]bool)
		best      = -1
		bestScore = -1.0
		visited   int
		phases    int
	)
	merge := func(pr phaseResult) {
		phases++
		visited += pr.visited
		for _, h := range pr.pool {
			if !inPool[h] {
				inPool[h] = true
				pool = append(pool, h)
			}
		}
		if pr.best >= 0 && pr.bestScore > bestScore {
			best, bestScore = pr.best, pr.bestScore
		}
	}

	merge(run.phase("enhanced", p.MaxNodes, true))
	if len(pool) == 0 && bestScore < HighConfidenceScore && !run.stopped() {
		remaining := p.MaxNodes - visited
		focused := remaining / 2
		if focused < FocusedPhaseFloor {
			focused = FocusedPhaseFloor
		}
		if focused > remaining {
			focused = remaining
		}
		if focused > MinPhaseBudget {
			merge(run.phase("focused", focused, true))
		}
		remaining = p.MaxNodes - visited
		if len(pool) == 0 && bestScore < LowConfidenceScore && remaining > MinPhaseBudget && !run.stopped() {
			merge(run.phase("role-class", remaining, false))
		}
	}

	res := SearchResult{Visited: visited, PoolSize: len(pool), Phases: phases, TimedOut: run.timedOut}
	switch {
	case len(pool) > 0:
		h := run.rankPool(pool)
		res.Node, res.Info, res.Score, res.Strict = run.cache.node(h), run.cache.info(run.cache.node(h)), 1.0, true
	case best >= 0:
		res.Node, res.Info, res.Score = run.cache.node(best), run.cache.info(run.cache.node(best)), bestScore
	}
	searchVisited.Observe(float64(visited))
	span.SetAttributes(
		attribute.Int("search.visited", visited),
		attribute.Int("search.pool", len(pool)),
		attribute.Float64("search.score", res.Score),
		attribute.Bool("search.timed_out", run.timedOut),
	)
	s.logger.Debug("search complete",
		slog.Int("visited", visited),
		slog.Int("phases", phases),
		slog.Int("strict_pool", len(pool)),
		slog.Float64("score", res.Score),
	)
	return res
}

// stopped reports an expired time budget or a cancelled context.
func (r *searchRun) stopped() bool {
	if r.ctx.Err() != nil {
		return true
	}
	if !r.s.now().Before(r.deadline) {
		r.timedOut = true
		return true
	}
	return false
}

func (r *searchRun) phase(name string, budget int, enhanced bool) phaseResult {
	_, span := r.s.tracer.Start(r.ctx, "resolve.Searcher.phase",
		trace.WithAttributes(
			attribute.String("phase.name", name),
			attribute.Int("phase.budget", budget),
		),
	)
	defer span.End()

	res := phaseResult{best: -1, bestScore: -1}
	inPool := make(map[int]bool)
	lastGrowth := 0
	q := &nodeQueue{}
	push := func(n platform.Node, depth int, leaf bool) {
		h := r.cache.handle(n)
		var prio float64
		if enhanced {
			prio = r.promise(r.cache.info(n), depth)
		} else {
			prio = classPriority(r.cache.info(n).Role, depth)
		}
		heap.Push(q, searchNode{handle: h, depth: depth, priority: prio, seq: r.seq, leaf: leaf})
		r.seq++
	}
	addPool := func(h int) {
		if !inPool[h] {
			inPool[h] = true
			res.pool = append(res.pool, h)
			lastGrowth = res.visited
		}
	}
	pushChildren := func(n platform.Node, depth int, leaf bool) {
		if depth < r.p.MaxDepth {
			for _, ch := range r.s.r.Children(n) {
				push(ch, depth+1, leaf)
			}
		}
	}

	for _, ch := range r.s.r.Children(r.p.Root) {
		push(ch, 1, false)
	}

	for q.Len() > 0 && res.visited < budget {
		if r.stopped() {
			break
		}
		if len(res.pool) > 0 && res.visited-lastGrowth >= PoolSettleVisits {
			break
		}
		it := heap.Pop(q).(searchNode)
		res.visited++

		n := r.cache.node(it.handle)
		info := r.cache.info(n)
		if model.TextContentRoles.Has(info.Role) || !r.inWindow(n, info) {
			continue
		}
		if r.isBulk(n, info, it.depth) {
			// Bulk lists are not scored, but their direct children are
			// still visited so controls inside them stay reachable.
			if !it.leaf {
				pushChildren(n, it.depth, true)
			}
			continue
		}
		if !sizeOK(info.Frame) || isLineLike(info.Frame) {
			if !it.leaf && model.ContainerRoles.Has(info.Role) {
				pushChildren(n, it.depth, false)
			}
			continue
		}

		if model.StrictIdentity(r.rec, info) {
			addPool(it.handle)
		} else {
			if !model.InteractiveRoles.Has(info.Role) && !model.ContainerRoles.Has(info.Role) {
				if h, ok := r.bubble(n, info); ok {
					addPool(h)
					continue
				}
			}
			if r.p.AllowedRoles == nil || r.p.AllowedRoles.Has(info.Role) || model.ContainerRoles.Has(info.Role) {
				if sc := model.SoftScore(r.rec, info); sc > res.bestScore {
					res.best, res.bestScore = it.handle, sc
				}
			}
		}
		if !it.leaf {
			pushChildren(n, it.depth, false)
		}
	}

	span.SetAttributes(attribute.Int("phase.visited", res.visited), attribute.Int("phase.pool", len(res.pool)))
	r.s.logger.Debug("search phase",
		slog.String("phase", name),
		slog.Int("budget", budget),
		slog.Int("visited", res.visited),
		slog.Int("strict_pool", len(res.pool)),
		slog.Float64("best_score", res.bestScore),
	)
	return res
}

// promise is the full priority model; lower values are explored first.
func (r *searchRun) promise(info *model.LiveElementInfo, depth int) float64 {
	p := PriorityBase
	switch {
	case r.rec.Role != "" && info.Role == r.rec.Role:
		p -= PriorityExactRole
	case model.ClickableRoles.Has(info.Role):
		p -= PriorityClickable
	case model.UIControlContainers.Has(info.Role):
		p -= PriorityControlContainer
	case model.ContainerRoles.Has(info.Role):
		p -= PriorityContainer
	}

	if want := strings.ToLower(r.rec.BestLabel); want != "" && info.BestLabel != "" {
		p -= model.WordOverlap(want, strings.ToLower(info.BestLabel)) * PriorityLabelOverlap
	}

	if r.target != nil && info.Frame != nil {
		if diag := r.p.WindowFrame.Diagonal(); diag > 0 {
			d := model.Dist(info.Frame.Center(), *r.target) / diag
			if d > 1 {
				d = 1
			}
			p -= (1 - d) * PriorityProximity
		}
	}

	if model.ContainerRoles.Has(info.Role) {
		p += minf(float64(depth)*ContainerDepthPenalty, ContainerDepthPenaltyMax)
	} else {
		p += minf(float64(depth)*LeafDepthPenalty, LeafDepthPenaltyMax)
	}
	return p
}

// classPriority orders nodes by role class only.
func classPriority(role string, depth int) float64 {
	switch {
	case model.UIControlContainers.Has(role):
		return ClassControlContainer
	case model.ClickableRoles.Has(role):
		return ClassClickable
	case model.InteractiveRoles.Has(role):
		return ClassInteractive
	case role == "AXWebArea":
		return ClassWebArea
	case model.ContainerRoles.Has(role):
		d := depth
		if d > 5 {
			d = 5
		}
		return ClassContainer + float64(d)
	}
	return ClassOther
}

// isBulk reports text content and oversized lists deep in the tree.
func (r *searchRun) isBulk(n platform.Node, info *model.LiveElementInfo, depth int) bool {
	if model.TextContentRoles.Has(info.Role) {
		return true
	}
	if depth <= BulkListDepth {
		return false
	}
	children := len(r.s.r.Children(n))
	if model.BulkContainerRoles.Has(info.Role) {
		return children > BulkListChildren
	}
	return children > BulkAnyChildren && depth > BulkAnyDepth
}

// inWindow rejects nodes outside the root window or off the window frame.
func (r *searchRun) inWindow(n platform.Node, info *model.LiveElementInfo) bool {
	if r.p.RootWindow != nil {
		if w := ancestorWithRole(r.s.r, n, 30, "AXWindow"); w == nil || w != r.p.RootWindow {
			return false
		}
	}
	if r.p.WindowFrame == nil || info.Frame == nil {
		return true
	}
	return info.Frame.Intersects(*r.p.WindowFrame)
}

// bubble promotes the nearest clickable ancestor of a non-interactive node
// whose label equals the recorded one, if that ancestor passes strict
// identity and the window and size filters. It never climbs past the root.
func (r *searchRun) bubble(n platform.Node, info *model.LiveElementInfo) (int, bool) {
	if r.recKey == "" || model.NormText(info.BestLabel) != r.recKey {
		return 0, false
	}
	for cur, hops := n, 0; cur != nil && hops < MaxBubbleHops; cur, hops = r.s.r.Parent(cur), hops+1 {
		if cur == r.p.Root {
			return 0, false
		}
		ci := r.cache.info(cur)
		if model.ClickableRoles.Has(ci.Role) || ci.IsClickable() {
			if !r.inWindow(cur, ci) || !sizeOK(ci.Frame) || !model.StrictIdentity(r.rec, ci) {
				return 0, false
			}
			return r.cache.handle(cur), true
		}
	}
	return 0, false
}

// rankPool prefers elements with a press action, then the one nearest the
// fraction-projected target. Discovery order breaks remaining ties.
func (r *searchRun) rankPool(pool []int) int {
	type ranked struct {
		h     int
		press bool
		dist  float64
	}
	rs := make([]ranked, len(pool))
	for i, h := range pool {
		info := r.cache.info(r.cache.node(h))
		rs[i] = ranked{h: h, press: info.HasPress()}
		if r.target != nil {
			c := *r.target
			if info.Frame != nil {
				c = info.Frame.Center()
			}
			rs[i].dist = model.Dist(c, *r.target)
		}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].press != rs[j].press {
			return rs[i].press
		}
		return rs[i].dist < rs[j].dist
	})
	return rs[0].h
}

func sizeOK(f *model.Rect) bool {
	return f == nil || (f.W >= MinNodeSize && f.H >= MinNodeSize)
}

func isLineLike(f *model.Rect) bool {
	if f == nil {
		return false
	}
	thin := f.W <= LineThickness || f.H <= LineThickness
	long := f.W >= LineMinLength || f.H >= LineMinLength
	return thin && long
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

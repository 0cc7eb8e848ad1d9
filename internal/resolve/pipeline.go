package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// attempt is the state of one pass through the pipeline.
type attempt struct {
	ctx     context.Context
	e       *Engine
	rec     *model.RecordedSignature
	opts    Options
	log     *slog.Logger
	target  *Target
	trusted bool
	diag    *Diagnostics
	res     *Result
}

func (e *Engine) newAttempt(ctx context.Context, rec *model.RecordedSignature, opts Options, log *slog.Logger) *attempt {
	diag := &Diagnostics{}
	return &attempt{
		ctx:  ctx,
		e:    e,
		rec:  rec,
		opts: opts,
		log:  log,
		diag: diag,
		res:  &Result{Diagnostics: diag},
	}
}

// runAttempt executes one traced pipeline pass.
func (e *Engine) runAttempt(ctx context.Context, rec *model.RecordedSignature, opts Options, log *slog.Logger, n int) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "resolve.Engine.attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()
	a := e.newAttempt(ctx, rec, opts, log.With(slog.Int("attempt", n)))
	res, err := a.run()
	recordAttempt(span, res, err)
	return res, err
}

// hit hit-tests p and compares whatever is there with the recording.
func (a *attempt) hit(p model.Point) (hitResult, error) {
	n, err := a.e.p.HitTester.ElementAt(p.X, p.Y)
	if err != nil {
		return hitResult{Point: p}, fmt.Errorf("hit-test at %s: %w", p, err)
	}
	if n == nil {
		return hitResult{Point: p}, nil
	}
	info := readInfo(a.e.p.Reader, n)
	return hitResult{Point: p, Node: n, Info: info, Mismatches: a.compare(info)}, nil
}

func (a *attempt) compare(info *model.LiveElementInfo) model.MismatchSet {
	if info == nil {
		return nil
	}
	return model.Compare(a.rec, info, a.trusted)
}

// fail records the failing stage on the result.
func (a *attempt) fail(err error) (*Result, error) {
	a.res.Success = false
	a.res.Stage = StageOf(err)
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Mismatches != nil {
			a.res.Mismatches = pe.Mismatches
		}
		if pe.Score > a.res.Score {
			a.res.Score = pe.Score
		}
	}
	a.log.Debug("attempt failed", slog.String("stage", string(a.res.Stage)), slog.String("error", err.Error()))
	return a.res, err
}

func (a *attempt) succeed(h hitResult, method string, p model.Point) (*Result, error) {
	r := a.res
	r.Success = true
	r.Executed = a.opts.Execute
	r.Method = method
	r.Stage = StageExecute
	if !a.opts.Execute {
		r.Stage = StageHover
	}
	r.Point = &p
	r.Element = h.Info
	r.Mismatches = h.Mismatches
	r.Source = h.Source
	a.diag.Final = &p
	a.log.Debug("done", slog.String("method", method), slog.String("point", p.String()), slog.String("source", h.Source))
	return r, nil
}

// run is one pass: target, identity, projection, prediction, preflight,
// refinement, search, hover check and execution.
func (a *attempt) run() (*Result, error) {
	t, err := a.e.ResolveTarget(a.rec, a.log)
	if err != nil {
		return a.fail(err)
	}
	a.target = t
	a.res.App = &t.App
	a.res.WindowTitle = t.WindowTitle
	a.res.Strategy = t.Strategy

	id := a.e.CheckIdentity(a.rec, t, a.log)
	a.trusted = id.Trusted
	a.res.Identity = &id
	a.res.Trusted = id.Trusted
	if !id.Frontmost {
		a.ensureFrontmost()
	}

	live := t.WindowFrame
	a.diag.WindowFrame = live
	if a.rec.WindowFrame != nil && live != nil {
		al := Align(*a.rec.WindowFrame, *live, a.rec.ClickFrac != nil)
		a.res.Alignment = &al
		a.log.Debug("projection", slog.String("alignment", al.String()))
	}

	pred, err := Predict(a.rec, live)
	if err != nil {
		return a.fail(err)
	}
	a.res.Prediction = &pred
	a.diag.Predicted = &pred.Point
	a.log.Debug("predict", slog.String("source", pred.Source), slog.String("point", pred.Point.String()))
	if pred.Direct {
		return a.directClick(pred.Point)
	}

	cur, err := a.preflight(pred.Point)
	if err != nil {
		return a.fail(err)
	}
	if cur.found() {
		a.log.Debug("preflight",
			slog.String("role", cur.Info.Role),
			slog.String("label", cur.Info.BestLabel),
			slog.String("mismatches", cur.Mismatches.String()),
		)
		perfect := len(cur.Mismatches) == 0 && cur.Info.HasPress() && cur.Info.Role != "AXGroup"
		if !perfect {
			cur = a.microRefine(cur)
			if cur.found() && len(cur.Mismatches) > 0 {
				cur = a.quickRefine(cur)
			}
			if cur.found() && len(cur.Mismatches) > 0 {
				cur = a.evaluateCandidates(cur)
			}
		}
	} else {
		a.log.Debug("preflight: nothing under point", slog.String("point", pred.Point.String()))
	}
	if a.ctx.Err() != nil {
		return a.fail(&Error{Stage: StageRefine, Code: ErrNoElement, Cause: a.ctx.Err()})
	}

	if !cur.found() || len(cur.Mismatches) > 0 {
		adapted, done, err := a.adaptFullWindow()
		if err != nil {
			return a.fail(err)
		}
		if done {
			return a.res, nil
		}
		cur = adapted
	}
	return a.finish(cur)
}

// preflight hit-tests the predicted point. An empty hit, or a window or
// group without a press action, usually means the application is behind
// another one: it is brought to the front and the point is read once more.
func (a *attempt) preflight(p model.Point) (hitResult, error) {
	cur, err := a.hit(p)
	if err != nil {
		return cur, &Error{Stage: StagePreflight, Code: ErrNoElement, Cause: err}
	}
	if !cur.found() || isUnpressableShell(cur.Info) {
		a.log.Debug("preflight: re-activating before a second read", slog.String("point", p.String()))
		a.ensureFrontmost()
		cur, err = a.hit(p)
		if err != nil {
			return cur, &Error{Stage: StagePreflight, Code: ErrNoElement, Cause: err}
		}
	}
	cur.Source = "preflight"
	return cur, nil
}

// quickRefine replaces cur with the best soft match under its window when
// that match clears the acceptance score without adding mismatches.
func (a *attempt) quickRefine(cur hitResult) hitResult {
	r := a.e.p.Reader
	root := nearestWindow(r, cur.Node)
	if root == nil && a.target != nil {
		root = a.target.Window
	}
	if root == nil {
		return cur
	}
	cfg := a.e.cfg.Search
	q := QuickResolve(a.ctx, r, a.rec, root, cfg.QuickMaxDepth, cfg.QuickMaxNodes)
	if q.Node == nil || q.Score < cfg.AcceptScore {
		return cur
	}
	p, ok := quickPoint(q.Info)
	if !ok {
		return cur
	}
	mism := a.compare(q.Info)
	if len(mism) > len(cur.Mismatches) {
		return cur
	}
	a.log.Debug("quick resolve", slog.Float64("score", q.Score), slog.Int("visited", q.Visited), slog.String("point", p.String()))
	return hitResult{Point: p, Node: q.Node, Info: q.Info, Mismatches: mism, Source: "quick"}
}

// adaptFullWindow runs the adaptive search over the whole target window. A
// strict match goes through the safety gate and is executed at once, setting
// done; otherwise the soft match is handed back for the hover check and
// safety gate.
func (a *attempt) adaptFullWindow() (hitResult, bool, error) {
	a.ensureFrontmost()
	root := a.target.Window
	if root == nil {
		root = a.target.AppNode
	}
	if root == nil {
		return hitResult{}, false, stageErr(StageSearch, ErrNoElement, "no window or application element to search")
	}
	cfg := a.e.cfg.Search
	s := NewSearcher(a.e.p.Reader,
		WithSearchClock(a.e.now),
		WithSearchTracer(a.e.tracer),
		WithSearchLogger(a.log),
	)
	sr := s.Search(a.ctx, a.rec, SearchParams{
		Root:        root,
		RootWindow:  a.target.Window,
		WindowFrame: a.target.WindowFrame,
		MaxDepth:    cfg.MaxDepth,
		MaxNodes:    cfg.MaxNodes,
		TimeBudget:  cfg.TimeBudget,
	})
	if sr.Score > a.res.Score {
		a.res.Score = sr.Score
	}
	if !sr.Found() {
		return hitResult{}, false, &Error{
			Stage:   StageSearch,
			Code:    ErrNoElement,
			Message: fmt.Sprintf("no candidate after %d nodes", sr.Visited),
			Score:   sr.Score,
		}
	}
	h := hitResult{Node: sr.Node, Info: sr.Info, Mismatches: a.compare(sr.Info)}
	if sr.Strict {
		h.Source = "search_strict"
		if p, ok := strictPoint(sr.Info); ok {
			h.Point = p
		}
		if !a.opts.Execute {
			return h, false, nil
		}
		if err := a.gate(h); err != nil {
			a.res.Element = h.Info
			a.res.Source = h.Source
			return h, false, err
		}
		method, p, err := a.execute(h)
		if err != nil {
			return h, false, err
		}
		_, _ = a.succeed(h, method, p)
		return h, true, nil
	}
	if sr.Score < cfg.AcceptScore {
		return h, false, &Error{
			Stage:      StageSearch,
			Code:       ErrNoElement,
			Message:    fmt.Sprintf("best candidate %s scored below %.2f", sr.Info.Role, cfg.AcceptScore),
			Mismatches: h.Mismatches,
			Score:      sr.Score,
		}
	}
	h.Source = "search_soft"
	p, ok := safePoint(sr.Info)
	if !ok {
		return h, false, &Error{Stage: StageSearch, Code: ErrNoElement, Message: "candidate has no geometry", Score: sr.Score}
	}
	h.Point = p
	return h, false, nil
}

// finish runs the hover check when requested, then the safety gate and
// execution.
func (a *attempt) finish(cur hitResult) (*Result, error) {
	a.diag.Final = &cur.Point
	if a.opts.DryHover || !a.opts.Execute {
		if err := a.e.p.Inputter.MoveMouse(cur.Point.X, cur.Point.Y); err != nil {
			return a.fail(&Error{Stage: StageHover, Code: ErrExecution, Cause: err})
		}
		a.e.sleep(a.ctx, a.e.cfg.Timing.HoverDelay)
		h, err := a.hit(cur.Point)
		if err != nil || !h.found() {
			return a.fail(&Error{Stage: StageHover, Code: ErrNoElement, Message: "nothing under the final point", Cause: err})
		}
		h.Source = cur.Source
		cur = h
		a.log.Debug("hover", slog.String("role", cur.Info.Role), slog.String("mismatches", cur.Mismatches.String()))
	}
	a.res.Element = cur.Info
	a.res.Mismatches = cur.Mismatches
	a.res.Source = cur.Source
	a.res.Point = &cur.Point

	if !a.opts.Execute {
		if len(cur.Mismatches) > 0 {
			return a.fail(&Error{Stage: StageHover, Code: ErrIdentityMismatch, Mismatches: cur.Mismatches})
		}
		return a.succeed(cur, MethodHover, cur.Point)
	}
	if err := a.gate(cur); err != nil {
		return a.fail(err)
	}
	method, p, err := a.execute(cur)
	if err != nil {
		return a.fail(err)
	}
	return a.succeed(cur, method, p)
}

// directClick replays a container recording at its raw point without
// refinement.
func (a *attempt) directClick(p model.Point) (*Result, error) {
	h, _ := a.hit(p)
	h.Source = "direct"
	if !a.opts.Execute {
		if err := a.e.p.Inputter.MoveMouse(p.X, p.Y); err != nil {
			return a.fail(&Error{Stage: StageHover, Code: ErrExecution, Cause: err})
		}
		return a.succeed(h, MethodHover, p)
	}
	if err := a.clickAt(p, platform.MouseLeft); err != nil {
		return a.fail(&Error{Stage: StageExecute, Code: ErrExecution, Cause: err})
	}
	return a.succeed(h, MethodDirect, p)
}

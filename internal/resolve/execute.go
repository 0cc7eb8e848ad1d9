package resolve

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// Execution methods reported in Result.Method.
const (
	MethodPress      = "press"
	MethodClick      = "mouse_left"
	MethodBiased     = "biased_click"
	MethodCenter     = "center_click"
	MethodRightClick = "mouse_right"
	MethodDirect     = "direct_click"
	MethodMenuPress  = "menu_press"
	MethodMenuClick  = "menu_click"
	MethodSetValue   = "set_value"
	MethodPaste      = "paste"
	MethodType       = "type_text"
	MethodKey        = "key"
	MethodActivate   = "activate"
	MethodHover      = "hover"
)

// execStrategy is one way of acting on a resolved element. A nil point
// function means the native press action.
type execStrategy struct {
	method string
	point  func(h hitResult) (model.Point, bool)
}

// executionOrder is tried in turn until one strategy succeeds.
var executionOrder = []execStrategy{
	{MethodPress, nil},
	{MethodClick, func(h hitResult) (model.Point, bool) { return h.Point, true }},
	{MethodBiased, func(h hitResult) (model.Point, bool) { return biasedPoint(h.Info) }},
	{MethodCenter, func(h hitResult) (model.Point, bool) {
		if h.Info == nil || h.Info.Frame == nil {
			return model.Point{}, false
		}
		return h.Info.Frame.Center(), true
	}},
}

// execute acts on h with the first strategy that succeeds and returns the
// method and the point used.
func (a *attempt) execute(h hitResult) (string, model.Point, error) {
	return a.executeWith(h, executionOrder)
}

func (a *attempt) executeWith(h hitResult, order []execStrategy) (string, model.Point, error) {
	var errs []error
	tried := make(map[model.Point]bool)
	for _, s := range order {
		if a.ctx.Err() != nil {
			return "", model.Point{}, &Error{Stage: StageExecute, Code: ErrExecution, Cause: a.ctx.Err()}
		}
		if s.point == nil {
			if h.Info == nil || !h.Info.HasPress() {
				continue
			}
			if err := a.e.p.ActionPerformer.Perform(h.Node, model.ActionPress); err != nil {
				a.log.Debug("execute: press failed", slog.String("error", err.Error()))
				errs = append(errs, err)
				continue
			}
			a.e.sleep(a.ctx, a.e.cfg.Timing.ClickDelay)
			return s.method, h.Point, nil
		}
		p, ok := s.point(h)
		if !ok || tried[p] {
			continue
		}
		tried[p] = true
		if err := a.clickAt(p, platform.MouseLeft); err != nil {
			a.log.Debug("execute: click failed", slog.String("method", s.method), slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		return s.method, p, nil
	}
	return "", model.Point{}, &Error{
		Stage:      StageExecute,
		Code:       ErrExecution,
		Message:    "every execution strategy failed",
		Mismatches: h.Mismatches,
		Cause:      errors.Join(errs...),
	}
}

// clickAt hovers p, then clicks it once.
func (a *attempt) clickAt(p model.Point, button platform.MouseButton) error {
	in := a.e.p.Inputter
	if err := in.MoveMouse(p.X, p.Y); err != nil {
		return fmt.Errorf("moving to %s: %w", p, err)
	}
	a.e.sleep(a.ctx, a.e.cfg.Timing.ClickDelay)
	if err := in.Click(p.X, p.Y, button, 1); err != nil {
		return fmt.Errorf("%s click at %s: %w", button, p, err)
	}
	a.e.sleep(a.ctx, a.e.cfg.Timing.ClickDelay)
	return nil
}

// gate applies safe-click mode: any remaining mismatch blocks the action
// unless the single-mismatch container exception applies.
func (a *attempt) gate(h hitResult) error {
	if !a.opts.SafeClick || len(h.Mismatches) == 0 {
		return nil
	}
	if h.Info != nil && model.AllowContainerMismatch(a.rec, h.Info, len(h.Mismatches), a.trusted) {
		a.log.Debug("gate: container mismatch allowed", slog.String("role", h.Info.Role), slog.String("mismatches", h.Mismatches.String()))
		return nil
	}
	return &Error{
		Stage:      StageExecute,
		Code:       ErrSafetyGate,
		Message:    "element does not match the recording",
		Mismatches: h.Mismatches,
	}
}

// ensureFrontmost activates the target application, verifying after each
// try. It reports whether the application ended up frontmost.
func (a *attempt) ensureFrontmost() bool {
	if a.target == nil {
		return false
	}
	return a.e.activate(a, a.target.App.PID)
}

func (e *Engine) activate(a *attempt, pid int) bool {
	apps := e.p.Apps
	for try := 0; try < 2; try++ {
		if front, err := apps.Frontmost(); err == nil && front.PID == pid {
			return true
		}
		if err := apps.Activate(pid); err != nil {
			a.log.Debug("activate failed", slog.Int("pid", pid), slog.String("error", err.Error()))
			return false
		}
		e.sleep(a.ctx, e.cfg.Timing.ActivationDelay)
	}
	front, err := apps.Frontmost()
	ok := err == nil && front.PID == pid
	if !ok {
		a.log.Debug("activate: application did not come to front", slog.Int("pid", pid))
	}
	return ok
}

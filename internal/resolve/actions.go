package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// bypass handles steps that do not need element resolution: opening an
// application, typing, key presses, menu items and right clicks. ok is
// false when the step goes through the pipeline.
func (e *Engine) bypass(ctx context.Context, rec *model.RecordedSignature, opts Options, log *slog.Logger) (*Result, bool, error) {
	a := e.newAttempt(ctx, rec, opts, log)
	a.res.Stage = StageBypass
	action := strings.ToLower(strings.TrimSpace(rec.Action))
	var (
		res *Result
		err error
	)
	switch {
	case (action == "open" || action == "os_command") && rec.AppLabel() != "":
		res, err = a.openApp()
	case action == "type":
		res, err = a.typeText()
	case action == "key":
		res, err = a.pressKey()
	case strings.EqualFold(rec.Button, "right"):
		res, err = a.rightClick()
	case (action == "" || action == "click") && model.MenuRoles.Has(rec.Role):
		res, err = a.menuClick()
	default:
		return nil, false, nil
	}
	return res, true, err
}

func (a *attempt) bypassErr(code error, msg string, cause error) error {
	return &Error{Stage: StageBypass, Code: code, Message: msg, Cause: cause}
}

// done finishes a bypass step without an element.
func (a *attempt) done(method string) (*Result, error) {
	a.res.Success = true
	a.res.Executed = a.opts.Execute
	a.res.Method = method
	a.res.Stage = StageBypass
	a.log.Debug("bypass", slog.String("method", method), slog.Bool("executed", a.opts.Execute))
	return a.res, nil
}

// openApp brings an already running application to the front.
func (a *attempt) openApp() (*Result, error) {
	name := a.rec.AppLabel()
	apps, err := a.e.p.Apps.RunningApps()
	if err != nil {
		return a.fail(a.bypassErr(ErrAppNotFound, "listing applications", err))
	}
	var found *model.App
	for i := range apps {
		if a.e.cfg.IsDenied(apps[i].Name) {
			continue
		}
		if AppMatches(name, apps[i].Name, "", a.e.cfg.AppAliases) {
			found = &apps[i]
			break
		}
	}
	if found == nil {
		return a.fail(a.bypassErr(ErrAppNotFound, fmt.Sprintf("%q is not running", name), nil))
	}
	a.target = &Target{App: *found}
	a.res.App = found
	if !a.opts.Execute {
		return a.done(MethodActivate)
	}
	if !a.ensureFrontmost() {
		return a.fail(a.bypassErr(ErrExecution, fmt.Sprintf("%s did not come to the front", found.Name), nil))
	}
	return a.done(MethodActivate)
}

// focusedElement is the focused element of the frontmost application.
func (a *attempt) focusedElement() platform.Node {
	front, err := a.e.p.Apps.Frontmost()
	if err != nil {
		return nil
	}
	root, err := a.e.p.Apps.ApplicationNode(front.PID)
	if err != nil || root == nil {
		return nil
	}
	return platform.NodeAttr(a.e.p.Reader, root, platform.AttrFocusedElement)
}

// typeStrategy is one way of entering text.
type typeStrategy struct {
	method string
	run    func(a *attempt, text string) error
}

// typingOrder prefers writing the value directly, then a clipboard paste,
// then synthetic keystrokes.
var typingOrder = []typeStrategy{
	{MethodSetValue, func(a *attempt, text string) error {
		if a.e.p.ValueSetter == nil {
			return errors.New("value setter not available")
		}
		el := a.focusedElement()
		if el == nil {
			return errors.New("no focused element")
		}
		if err := a.e.p.ValueSetter.SetValue(el, platform.AttrValue, text); err != nil {
			return err
		}
		if got := platform.StringAttr(a.e.p.Reader, el, platform.AttrValue); got != text {
			return fmt.Errorf("value did not stick: got %q", got)
		}
		return nil
	}},
	{MethodPaste, func(a *attempt, text string) error {
		cb := a.e.p.ClipboardManager
		if cb == nil {
			return errors.New("clipboard not available")
		}
		saved, err := cb.ReadText()
		if err != nil {
			return fmt.Errorf("reading clipboard: %w", err)
		}
		defer func() {
			if err := cb.WriteText(saved); err != nil {
				a.log.Debug("type: restoring clipboard failed", slog.String("error", err.Error()))
			}
		}()
		if err := cb.WriteText(text); err != nil {
			return fmt.Errorf("writing clipboard: %w", err)
		}
		if err := a.e.p.Inputter.KeyCombo([]string{"cmd", "v"}); err != nil {
			return err
		}
		a.e.sleep(a.ctx, a.e.cfg.Timing.ClickDelay)
		return nil
	}},
	{MethodType, func(a *attempt, text string) error {
		return a.e.p.Inputter.TypeText(text, 0)
	}},
}

func (a *attempt) typeText() (*Result, error) {
	text := a.rec.Text
	if text == "" {
		return a.fail(a.bypassErr(ErrInvalidStep, "type step has no text", nil))
	}
	if !a.opts.Execute {
		return a.done(MethodType)
	}
	var errs []error
	for _, s := range typingOrder {
		if err := s.run(a, text); err != nil {
			a.log.Debug("type: strategy failed", slog.String("method", s.method), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", s.method, err))
			continue
		}
		return a.done(s.method)
	}
	return a.fail(a.bypassErr(ErrExecution, "could not enter text", errors.Join(errs...)))
}

// ParseKeyCombo splits a recorded key string such as "cmd+shift+t" and
// normalises modifier spellings.
func ParseKeyCombo(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, "+") {
		k = strings.ToLower(strings.TrimSpace(k))
		switch k {
		case "":
			continue
		case "cmd", "command":
			k = "cmd"
		case "ctrl", "control":
			k = "ctrl"
		case "opt", "option", "alt":
			k = "alt"
		case "return":
			k = "enter"
		}
		keys = append(keys, k)
	}
	return keys
}

func (a *attempt) pressKey() (*Result, error) {
	keys := ParseKeyCombo(a.rec.Key)
	if len(keys) == 0 {
		return a.fail(a.bypassErr(ErrInvalidStep, "key step has no key", nil))
	}
	if !a.opts.Execute {
		return a.done(MethodKey)
	}
	if len(keys) == 1 && keys[0] == "enter" {
		// Let modifiers from a previous chord release first.
		a.e.sleep(a.ctx, a.e.cfg.Timing.ClickDelay)
	}
	if err := a.e.p.Inputter.KeyCombo(keys); err != nil {
		return a.fail(a.bypassErr(ErrExecution, "key press failed", err))
	}
	return a.done(MethodKey)
}

func (a *attempt) rightClick() (*Result, error) {
	p, ok := a.rec.CoordinatesPoint()
	if !ok {
		return a.fail(a.bypassErr(ErrInvalidStep, "right click without coordinates", nil))
	}
	h, _ := a.hit(p)
	h.Source = "coordinates"
	if !a.opts.Execute {
		if err := a.e.p.Inputter.MoveMouse(p.X, p.Y); err != nil {
			return a.fail(a.bypassErr(ErrExecution, "hover failed", err))
		}
		res, err := a.succeed(h, MethodHover, p)
		res.Stage = StageBypass
		return res, err
	}
	if err := a.clickAt(p, platform.MouseRight); err != nil {
		return a.fail(a.bypassErr(ErrExecution, "right click failed", err))
	}
	res, err := a.succeed(h, MethodRightClick, p)
	res.Stage = StageBypass
	return res, err
}

// menuClick presses a menu item by title through the menu bar, falling back
// to menu buttons in the focused window.
func (a *attempt) menuClick() (*Result, error) {
	title := a.rec.Title
	if strings.TrimSpace(title) == "" {
		title = a.rec.BestLabel
	}
	want := model.NormMenuTitle(title)
	if want == "" {
		return a.fail(a.bypassErr(ErrInvalidStep, "menu step has no title", nil))
	}
	pid := a.menuPID()
	if pid == 0 {
		return a.fail(a.bypassErr(ErrAppNotFound, "no application for menu step", nil))
	}
	a.target = &Target{App: model.App{PID: pid}}
	r := a.e.p.Reader
	root, err := a.e.p.Apps.ApplicationNode(pid)
	if err != nil {
		return a.fail(a.bypassErr(ErrAppNotFound, "application element", err))
	}

	method := MethodMenuPress
	item := findByTitle(r, platform.NodeAttr(r, root, platform.AttrMenuBar), want, MaxMenuBarNodes,
		"AXMenuBarItem", "AXMenuItem")
	if item == nil {
		item = findByTitle(r, platform.NodeAttr(r, root, platform.AttrFocusedWindow), want, MaxWindowMenuNodes,
			"AXMenuButton", "AXPopUpButton", "AXMenuItem")
	}
	if item == nil {
		return a.fail(a.bypassErr(ErrNoElement, fmt.Sprintf("menu item %q not found", title), nil))
	}
	info := readInfo(r, item)
	h := hitResult{Node: item, Info: info, Source: "menu"}
	if p, ok := safePoint(info); ok {
		h.Point = p
	}
	if !a.opts.Execute {
		res, err := a.succeed(h, MethodMenuPress, h.Point)
		res.Stage = StageBypass
		return res, err
	}
	a.ensureFrontmost()
	if err := a.e.p.ActionPerformer.Perform(item, model.ActionPress); err != nil {
		a.log.Debug("menu: press failed, clicking", slog.String("error", err.Error()))
		if info.Frame == nil && info.ActivationPoint == nil {
			return a.fail(a.bypassErr(ErrExecution, "menu item has no geometry", err))
		}
		if err := a.clickAt(h.Point, platform.MouseLeft); err != nil {
			return a.fail(a.bypassErr(ErrExecution, "menu click failed", err))
		}
		method = MethodMenuClick
	}
	a.e.sleep(a.ctx, a.e.cfg.Timing.MenuDelay)
	res, err := a.succeed(h, method, h.Point)
	res.Stage = StageBypass
	return res, err
}

// menuPID is the recorded process when it is still running, else the
// frontmost one.
func (a *attempt) menuPID() int {
	if a.rec.PID != 0 {
		if apps, err := a.e.p.Apps.RunningApps(); err == nil {
			for _, app := range apps {
				if app.PID == a.rec.PID {
					return app.PID
				}
			}
		}
	}
	front, err := a.e.p.Apps.Frontmost()
	if err != nil {
		return 0
	}
	return front.PID
}

// findByTitle walks root breadth-first for an element of one of roles whose
// normalised menu title equals want.
func findByTitle(r platform.TreeReader, root platform.Node, want string, limit int, roles ...string) platform.Node {
	if root == nil {
		return nil
	}
	queue := []platform.Node{root}
	for visited := 0; len(queue) > 0 && visited < limit; visited++ {
		n := queue[0]
		queue = queue[1:]
		role := platform.Role(r, n)
		for _, rl := range roles {
			if role == rl && model.NormMenuTitle(platform.StringAttr(r, n, platform.AttrTitle)) == want {
				return n
			}
		}
		queue = append(queue, r.Children(n)...)
	}
	return nil
}

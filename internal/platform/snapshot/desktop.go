package snapshot

import (
	"fmt"
	"sync"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// EventKind names a logged interaction.
type EventKind string

const (
	EventMove     EventKind = "move"
	EventClick    EventKind = "click"
	EventKeys     EventKind = "keys"
	EventType     EventKind = "type"
	EventPerform  EventKind = "perform"
	EventSetValue EventKind = "set_value"
	EventActivate EventKind = "activate"
)

// Event is one logged interaction.
type Event struct {
	Kind   EventKind            `yaml:"kind" json:"kind"`
	Point  model.Point          `yaml:"point,omitempty" json:"point,omitempty"`
	Button platform.MouseButton `yaml:"button,omitempty" json:"button,omitempty"`
	Count  int                  `yaml:"count,omitempty" json:"count,omitempty"`
	Keys   []string             `yaml:"keys,omitempty" json:"keys,omitempty"`
	Text   string               `yaml:"text,omitempty" json:"text,omitempty"`
	Action string               `yaml:"action,omitempty" json:"action,omitempty"`
	Role   string               `yaml:"role,omitempty" json:"role,omitempty"`
	Title  string               `yaml:"title,omitempty" json:"title,omitempty"`
	PID    int                  `yaml:"pid,omitempty" json:"pid,omitempty"`
}

// Option adjusts a Desktop.
type Option func(*Desktop)

// WithStuckFocus makes Activate succeed without changing the frontmost app.
func WithStuckFocus() Option {
	return func(d *Desktop) { d.stuckFocus = true }
}

// WithFailingActions makes every Perform call fail.
func WithFailingActions() Option {
	return func(d *Desktop) { d.failActions = true }
}

// WithReadOnlyValues makes every SetValue call fail.
func WithReadOnlyValues() Option {
	return func(d *Desktop) { d.readOnly = true }
}

// Desktop is an in-memory desktop implementing every platform interface.
type Desktop struct {
	apps []*app

	mu          sync.Mutex
	frontmost   int
	clipboard   string
	events      []Event
	stuckFocus  bool
	failActions bool
	readOnly    bool
}

// New builds a Desktop from a fixture.
func New(f Fixture, opts ...Option) *Desktop {
	d := &Desktop{frontmost: f.Frontmost, clipboard: f.Clipboard}
	for _, fa := range f.Apps {
		a := &app{App: model.App{Name: fa.Name, PID: fa.PID, BundleID: fa.BundleID}}
		a.root = &node{el: model.Element{Role: "AXApplication", Title: fa.Name}, app: a}
		for _, w := range fa.Windows {
			if w.Role == "" {
				w.Role = "AXWindow"
			}
			wn := build(w, a, a.root, nil)
			a.windows = append(a.windows, wn)
			a.root.children = append(a.root.children, wn)
		}
		if fa.MenuBar != nil {
			mb := *fa.MenuBar
			if mb.Role == "" {
				mb.Role = "AXMenuBar"
			}
			a.menuBar = build(mb, a, a.root, nil)
			a.root.children = append(a.root.children, a.menuBar)
		}
		d.apps = append(d.apps, a)
	}
	if d.frontmost == 0 && len(d.apps) > 0 {
		d.frontmost = d.apps[0].PID
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Provider returns a platform.Provider backed by d.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{
		Reader:           d,
		HitTester:        d,
		Inputter:         d,
		Apps:             d,
		ActionPerformer:  d,
		ValueSetter:      d,
		ClipboardManager: d,
	}
}

// Events returns a copy of the interaction log.
func (d *Desktop) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// EventsOf returns the logged events of one kind.
func (d *Desktop) EventsOf(kind EventKind) []Event {
	var out []Event
	for _, e := range d.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears the interaction log.
func (d *Desktop) Reset() {
	d.mu.Lock()
	d.events = nil
	d.mu.Unlock()
}

func (d *Desktop) log(e Event) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *Desktop) findApp(pid int) *app {
	for _, a := range d.apps {
		if a.PID == pid {
			return a
		}
	}
	return nil
}

// MoveMouse implements platform.Inputter.
func (d *Desktop) MoveMouse(x, y float64) error {
	d.log(Event{Kind: EventMove, Point: model.Point{X: x, Y: y}})
	return nil
}

// Click implements platform.Inputter.
func (d *Desktop) Click(x, y float64, button platform.MouseButton, count int) error {
	if count < 1 {
		return fmt.Errorf("click count must be at least 1, got %d", count)
	}
	d.log(Event{Kind: EventClick, Point: model.Point{X: x, Y: y}, Button: button, Count: count})
	return nil
}

// KeyCombo implements platform.Inputter.
func (d *Desktop) KeyCombo(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combo")
	}
	d.log(Event{Kind: EventKeys, Keys: append([]string(nil), keys...)})
	return nil
}

// TypeText implements platform.Inputter.
func (d *Desktop) TypeText(text string, _ int) error {
	d.log(Event{Kind: EventType, Text: text})
	return nil
}

// RunningApps implements platform.AppDirectory.
func (d *Desktop) RunningApps() ([]model.App, error) {
	out := make([]model.App, len(d.apps))
	for i, a := range d.apps {
		out[i] = a.App
	}
	return out, nil
}

// Windows implements platform.AppDirectory.
func (d *Desktop) Windows(pid int) ([]model.Window, error) {
	a := d.findApp(pid)
	if a == nil {
		return nil, fmt.Errorf("no running app with pid %d", pid)
	}
	d.mu.Lock()
	front := d.frontmost
	d.mu.Unlock()
	focused := a.focusedWindow()
	out := make([]model.Window, 0, len(a.windows))
	for _, w := range a.windows {
		out = append(out, model.Window{
			App:     a.Name,
			PID:     a.PID,
			Title:   w.el.Title,
			Frame:   w.el.Frame,
			Main:    w.el.Main,
			Focused: pid == front && w == focused,
		})
	}
	return out, nil
}

// ApplicationNode implements platform.AppDirectory.
func (d *Desktop) ApplicationNode(pid int) (platform.Node, error) {
	a := d.findApp(pid)
	if a == nil {
		return nil, fmt.Errorf("no running app with pid %d", pid)
	}
	return a.root, nil
}

// Frontmost implements platform.AppDirectory.
func (d *Desktop) Frontmost() (model.App, error) {
	d.mu.Lock()
	front := d.frontmost
	d.mu.Unlock()
	a := d.findApp(front)
	if a == nil {
		return model.App{}, fmt.Errorf("no frontmost application")
	}
	return a.App, nil
}

// Activate implements platform.AppDirectory.
func (d *Desktop) Activate(pid int) error {
	if d.findApp(pid) == nil {
		return fmt.Errorf("no running app with pid %d", pid)
	}
	d.log(Event{Kind: EventActivate, PID: pid})
	d.mu.Lock()
	if !d.stuckFocus {
		d.frontmost = pid
	}
	d.mu.Unlock()
	return nil
}

// Perform implements platform.ActionPerformer.
func (d *Desktop) Perform(n platform.Node, action string) error {
	nd := asNode(n)
	if nd == nil {
		return fmt.Errorf("perform %s: invalid element", action)
	}
	if d.failActions {
		return fmt.Errorf("perform %s on %s: action failed", action, nd.el.Role)
	}
	if !platform.HasAction(d, n, action) {
		return fmt.Errorf("perform %s on %s: action not supported", action, nd.el.Role)
	}
	d.log(Event{Kind: EventPerform, Action: action, Role: nd.el.Role, Title: nd.el.Title})
	return nil
}

// SetValue implements platform.ValueSetter.
func (d *Desktop) SetValue(n platform.Node, attribute string, value any) error {
	nd := asNode(n)
	if nd == nil {
		return fmt.Errorf("set %s: invalid element", attribute)
	}
	if d.readOnly || !model.EditableTextRoles.Has(nd.el.Role) {
		return fmt.Errorf("set %s on %s: attribute not settable", attribute, nd.el.Role)
	}
	d.mu.Lock()
	if nd.values == nil {
		nd.values = make(map[string]any)
	}
	nd.values[attribute] = value
	d.mu.Unlock()
	d.log(Event{Kind: EventSetValue, Action: attribute, Text: fmt.Sprint(value), Role: nd.el.Role})
	return nil
}

// ReadText implements platform.ClipboardManager.
func (d *Desktop) ReadText() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clipboard, nil
}

// WriteText implements platform.ClipboardManager.
func (d *Desktop) WriteText(text string) error {
	d.mu.Lock()
	d.clipboard = text
	d.mu.Unlock()
	return nil
}

package snapshot

import (
	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/platform"
)

// node is one element of the served tree. Pointers are the handles.
type node struct {
	el       model.Element
	app      *app
	parent   *node
	window   *node
	children []*node
	values   map[string]any
}

type app struct {
	model.App
	root    *node
	menuBar *node
	windows []*node
}

func build(el model.Element, a *app, parent, window *node) *node {
	n := &node{el: el, app: a, parent: parent, window: window}
	n.el.Children = nil
	if window == nil && el.Role == "AXWindow" {
		n.window = n
	}
	for _, c := range el.Children {
		n.children = append(n.children, build(c, a, n, n.window))
	}
	return n
}

func asNode(n platform.Node) *node {
	nd, _ := n.(*node)
	return nd
}

// Attribute implements platform.TreeReader.
func (d *Desktop) Attribute(n platform.Node, name string) (any, bool) {
	nd := asNode(n)
	if nd == nil {
		return nil, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := nd.values[name]; ok {
		return v, true
	}
	el := nd.el
	str := func(s string) (any, bool) { return s, s != "" }
	switch name {
	case platform.AttrRole:
		return str(el.Role)
	case platform.AttrSubrole:
		return str(el.Subrole)
	case platform.AttrTitle:
		return str(el.Title)
	case platform.AttrValue:
		return str(el.Value)
	case platform.AttrDescription:
		return str(el.Description)
	case platform.AttrHelp:
		return str(el.Help)
	case platform.AttrPlaceholder:
		return str(el.Placeholder)
	case platform.AttrIdentifier:
		return str(el.Identifier)
	case platform.AttrFrame:
		if el.Frame == nil {
			return nil, false
		}
		return *el.Frame, true
	case platform.AttrActivationPoint:
		if el.ActivationPoint == nil {
			return nil, false
		}
		return *el.ActivationPoint, true
	case platform.AttrEnabled:
		return el.Enabled == nil || *el.Enabled, true
	case platform.AttrFocused:
		return el.Focused, true
	case platform.AttrMain:
		return el.Main, true
	case platform.AttrWindow:
		if nd.window == nil {
			return nil, false
		}
		return nd.window, true
	case platform.AttrWindows:
		if nd != nd.app.root {
			return nil, false
		}
		out := make([]platform.Node, len(nd.app.windows))
		for i, w := range nd.app.windows {
			out[i] = w
		}
		return out, true
	case platform.AttrMenuBar:
		if nd != nd.app.root || nd.app.menuBar == nil {
			return nil, false
		}
		return nd.app.menuBar, true
	case platform.AttrFocusedWindow:
		if nd != nd.app.root {
			return nil, false
		}
		if w := nd.app.focusedWindow(); w != nil {
			return w, true
		}
		return nil, false
	case platform.AttrFocusedElement:
		if nd != nd.app.root {
			return nil, false
		}
		if f := nd.app.focusedElement(); f != nil {
			return f, true
		}
		return nil, false
	}
	return nil, false
}

// Children implements platform.TreeReader.
func (d *Desktop) Children(n platform.Node) []platform.Node {
	nd := asNode(n)
	if nd == nil {
		return nil
	}
	out := make([]platform.Node, len(nd.children))
	for i, c := range nd.children {
		out[i] = c
	}
	return out
}

// Parent implements platform.TreeReader.
func (d *Desktop) Parent(n platform.Node) platform.Node {
	nd := asNode(n)
	if nd == nil || nd.parent == nil {
		return nil
	}
	return nd.parent
}

// Actions implements platform.TreeReader.
func (d *Desktop) Actions(n platform.Node) []string {
	nd := asNode(n)
	if nd == nil {
		return nil
	}
	return nd.el.Actions
}

// ElementAt implements platform.HitTester. The frontmost application is
// tested first; within a subtree the deepest element wins and later siblings
// sit on top of earlier ones.
func (d *Desktop) ElementAt(x, y float64) (platform.Node, error) {
	d.mu.Lock()
	front := d.frontmost
	d.mu.Unlock()

	p := model.Point{X: x, Y: y}
	ordered := make([]*app, 0, len(d.apps))
	for _, a := range d.apps {
		if a.PID == front {
			ordered = append([]*app{a}, ordered...)
		} else {
			ordered = append(ordered, a)
		}
	}
	for _, a := range ordered {
		for _, w := range a.windows {
			if hit := hitTest(w, p); hit != nil {
				return hit, nil
			}
		}
	}
	return nil, nil
}

func hitTest(n *node, p model.Point) *node {
	if n.el.Frame == nil || !n.el.Frame.Contains(p) {
		return nil
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if hit := hitTest(n.children[i], p); hit != nil {
			return hit
		}
	}
	return n
}

func (a *app) focusedWindow() *node {
	for _, w := range a.windows {
		if w.el.Focused {
			return w
		}
	}
	for _, w := range a.windows {
		if w.el.Main {
			return w
		}
	}
	if len(a.windows) > 0 {
		return a.windows[0]
	}
	return nil
}

func (a *app) focusedElement() *node {
	var walk func(n *node) *node
	walk = func(n *node) *node {
		if n.el.Focused && n.el.Role != "AXWindow" {
			return n
		}
		for _, c := range n.children {
			if f := walk(c); f != nil {
				return f
			}
		}
		return nil
	}
	for _, w := range a.windows {
		if f := walk(w); f != nil {
			return f
		}
	}
	return nil
}

package platform

import (
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
)

// Accessibility attribute names read by the resolver.
const (
	AttrRole            = "AXRole"
	AttrSubrole         = "AXSubrole"
	AttrRoleDescription = "AXRoleDescription"
	AttrTitle           = "AXTitle"
	AttrValue           = "AXValue"
	AttrDescription     = "AXDescription"
	AttrHelp            = "AXHelp"
	AttrPlaceholder     = "AXPlaceholderValue"
	AttrIdentifier      = "AXIdentifier"
	AttrFrame           = "AXFrame"
	AttrActivationPoint = "AXActivationPoint"
	AttrEnabled         = "AXEnabled"
	AttrFocused         = "AXFocused"
	AttrMain            = "AXMain"
	AttrWindow          = "AXWindow"
	AttrWindows         = "AXWindows"
	AttrMenuBar         = "AXMenuBar"
	AttrFocusedWindow   = "AXFocusedWindow"
	AttrFocusedElement  = "AXFocusedUIElement"
	AttrTitleElement    = "AXTitleUIElement"
)

// StringAttr returns a string attribute, or "" when absent or not a string.
func StringAttr(r TreeReader, n Node, name string) string {
	v, ok := r.Attribute(n, name)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case interface{ String() string }:
		return s.String()
	}
	return ""
}

// BoolAttr returns a boolean attribute and whether it was present.
func BoolAttr(r TreeReader, n Node, name string) (bool, bool) {
	v, ok := r.Attribute(n, name)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// RectAttr returns a rectangle attribute such as AXFrame.
func RectAttr(r TreeReader, n Node, name string) (model.Rect, bool) {
	v, ok := r.Attribute(n, name)
	if !ok {
		return model.Rect{}, false
	}
	switch rect := v.(type) {
	case model.Rect:
		return rect, true
	case *model.Rect:
		if rect != nil {
			return *rect, true
		}
	}
	return model.Rect{}, false
}

// PointAttr returns a point attribute such as AXActivationPoint.
func PointAttr(r TreeReader, n Node, name string) (model.Point, bool) {
	v, ok := r.Attribute(n, name)
	if !ok {
		return model.Point{}, false
	}
	switch p := v.(type) {
	case model.Point:
		return p, true
	case *model.Point:
		if p != nil {
			return *p, true
		}
	}
	return model.Point{}, false
}

// NodeAttr returns an element-valued attribute such as AXWindow.
func NodeAttr(r TreeReader, n Node, name string) Node {
	v, ok := r.Attribute(n, name)
	if !ok || v == nil {
		return nil
	}
	return v
}

// NodesAttr returns a list-valued attribute such as AXWindows.
func NodesAttr(r TreeReader, n Node, name string) []Node {
	v, ok := r.Attribute(n, name)
	if !ok {
		return nil
	}
	nodes, _ := v.([]Node)
	return nodes
}

// Frame returns the element's AXFrame.
func Frame(r TreeReader, n Node) (model.Rect, bool) {
	return RectAttr(r, n, AttrFrame)
}

// Role returns the element's AXRole.
func Role(r TreeReader, n Node) string {
	return StringAttr(r, n, AttrRole)
}

// HasAction reports whether the element supports action.
func HasAction(r TreeReader, n Node, action string) bool {
	for _, a := range r.Actions(n) {
		if a == action {
			return true
		}
	}
	return false
}

// ReadTree converts a live subtree into fixture elements, bounded by depth
// (0 = unlimited).
func ReadTree(r TreeReader, root Node, depth int) model.Element {
	return readTree(r, root, depth, 0)
}

func readTree(r TreeReader, n Node, maxDepth, depth int) model.Element {
	el := model.Element{
		Role:        Role(r, n),
		Subrole:     StringAttr(r, n, AttrSubrole),
		Title:       StringAttr(r, n, AttrTitle),
		Value:       StringAttr(r, n, AttrValue),
		Description: StringAttr(r, n, AttrDescription),
		Help:        StringAttr(r, n, AttrHelp),
		Placeholder: StringAttr(r, n, AttrPlaceholder),
		Identifier:  StringAttr(r, n, AttrIdentifier),
		Actions:     r.Actions(n),
	}
	if f, ok := Frame(r, n); ok {
		el.Frame = &f
	}
	if p, ok := PointAttr(r, n, AttrActivationPoint); ok {
		el.ActivationPoint = &p
	}
	if b, ok := BoolAttr(r, n, AttrEnabled); ok && !b {
		el.Enabled = &b
	}
	el.Focused, _ = BoolAttr(r, n, AttrFocused)
	el.Main, _ = BoolAttr(r, n, AttrMain)
	el.Title = strings.TrimSpace(el.Title)

	if maxDepth > 0 && depth >= maxDepth {
		return el
	}
	for _, c := range r.Children(n) {
		el.Children = append(el.Children, readTree(r, c, maxDepth, depth+1))
	}
	return el
}

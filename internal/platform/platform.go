package platform

import "github.com/mj1618/desktop-replay/internal/model"

// Node is an opaque handle to a live UI element. Handles are comparable and
// stable for as long as the element exists.
type Node any

// TreeReader reads attributes and structure of the OS accessibility tree.
type TreeReader interface {
	// Attribute returns the value of a named attribute, or false when the
	// element does not report it.
	Attribute(n Node, name string) (any, bool)
	Children(n Node) []Node
	// Parent returns nil at the root.
	Parent(n Node) Node
	Actions(n Node) []string
}

// HitTester finds the topmost element at a screen point.
type HitTester interface {
	// ElementAt returns nil and no error when nothing is under the point.
	ElementAt(x, y float64) (Node, error)
}

// Inputter simulates mouse and keyboard input.
type Inputter interface {
	MoveMouse(x, y float64) error
	Click(x, y float64, button MouseButton, count int) error
	KeyCombo(keys []string) error
	TypeText(text string, delayMs int) error
}

// AppDirectory lists running applications and controls which is frontmost.
type AppDirectory interface {
	RunningApps() ([]model.App, error)
	Windows(pid int) ([]model.Window, error)
	ApplicationNode(pid int) (Node, error)
	Frontmost() (model.App, error)
	Activate(pid int) error
}

// ActionPerformer performs accessibility actions directly on UI elements.
type ActionPerformer interface {
	Perform(n Node, action string) error
}

// ValueSetter writes a settable attribute on a UI element.
type ValueSetter interface {
	SetValue(n Node, attribute string, value any) error
}

// ClipboardManager reads and writes the plain-text clipboard.
type ClipboardManager interface {
	ReadText() (string, error)
	WriteText(text string) error
}

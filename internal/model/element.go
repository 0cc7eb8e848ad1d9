package model

// Element is one node of a UI element tree as described by a tree fixture.
// Fixture files nest elements under windows; the snapshot backend serves them
// through the same collaborator interfaces a live accessibility layer would.
type Element struct {
	Role            string    `yaml:"role"                       json:"role"`
	Subrole         string    `yaml:"subrole,omitempty"          json:"subrole,omitempty"`
	Title           string    `yaml:"title,omitempty"            json:"title,omitempty"`
	Value           string    `yaml:"value,omitempty"            json:"value,omitempty"`
	Description     string    `yaml:"description,omitempty"      json:"description,omitempty"`
	Help            string    `yaml:"help,omitempty"             json:"help,omitempty"`
	Placeholder     string    `yaml:"placeholder,omitempty"      json:"placeholder,omitempty"`
	Identifier      string    `yaml:"identifier,omitempty"       json:"identifier,omitempty"`
	Frame           *Rect     `yaml:"frame,omitempty"            json:"frame,omitempty"`
	ActivationPoint *Point    `yaml:"activation_point,omitempty" json:"activation_point,omitempty"`
	Actions         []string  `yaml:"actions,omitempty"          json:"actions,omitempty"`
	Enabled         *bool     `yaml:"enabled,omitempty"          json:"enabled,omitempty"` // nil = enabled
	Focused         bool      `yaml:"focused,omitempty"          json:"focused,omitempty"`
	Main            bool      `yaml:"main,omitempty"             json:"main,omitempty"`
	Children        []Element `yaml:"children,omitempty"         json:"children,omitempty"`
}

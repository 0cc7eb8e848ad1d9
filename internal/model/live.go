package model

import "strings"

// ActionPress is the native "activate this element" action.
const ActionPress = "AXPress"

// LiveElementInfo is a snapshot of a live tree node taken at query time.
// It is rebuilt on every read and never persisted.
type LiveElementInfo struct {
	Role            string   `yaml:"role,omitempty"             json:"role,omitempty"`
	Subrole         string   `yaml:"subrole,omitempty"          json:"subrole,omitempty"`
	RoleDescription string   `yaml:"role_description,omitempty" json:"role_description,omitempty"`
	Title           string   `yaml:"title,omitempty"            json:"title,omitempty"`
	Value           string   `yaml:"value,omitempty"            json:"value,omitempty"`
	Description     string   `yaml:"description,omitempty"      json:"description,omitempty"`
	Help            string   `yaml:"help,omitempty"             json:"help,omitempty"`
	Placeholder     string   `yaml:"placeholder,omitempty"      json:"placeholder,omitempty"`
	Identifier      string   `yaml:"identifier,omitempty"       json:"identifier,omitempty"`
	BestLabel       string   `yaml:"best_label,omitempty"       json:"best_label,omitempty"`
	Frame           *Rect    `yaml:"frame,omitempty"            json:"frame,omitempty"`
	ActivationPoint *Point   `yaml:"activation_point,omitempty" json:"activation_point,omitempty"`
	Actions         []string `yaml:"actions,omitempty"          json:"actions,omitempty"`
	Enabled         bool     `yaml:"enabled,omitempty"          json:"enabled,omitempty"`
	Focused         bool     `yaml:"focused,omitempty"          json:"focused,omitempty"`
}

// HasPress reports whether the element exposes the native press action.
func (l *LiveElementInfo) HasPress() bool {
	return l.HasAction(ActionPress)
}

// HasAction reports whether action is among the element's supported actions.
func (l *LiveElementInfo) HasAction(action string) bool {
	for _, a := range l.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// IsClickable reports a clickable role or a press/pick action.
func (l *LiveElementInfo) IsClickable() bool {
	return ClickableRoles.Has(l.Role) || l.HasPress() || l.HasAction("AXPick")
}

// LabelFromAttributes picks the live best label: title, then description,
// value and help, lowercased and trimmed. Empty when none is set.
func LabelFromAttributes(title, description, value, help string) string {
	for _, s := range []string{title, description, value, help} {
		if t := strings.TrimSpace(s); t != "" {
			return strings.ToLower(t)
		}
	}
	return ""
}

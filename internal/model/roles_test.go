package model

import "testing"

func TestMapRole_KnownRoles(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"AXButton", "btn"},
		{"AXStaticText", "txt"},
		{"AXLink", "lnk"},
		{"AXTextField", "input"},
		{"AXSearchField", "input"},
		{"AXCheckBox", "chk"},
		{"AXPopUpButton", "popup"},
		{"AXMenuItem", "menuitem"},
		{"AXMenuBarItem", "menuitem"},
		{"AXTab", "tab"},
		{"AXTable", "list"},
		{"AXGroup", "group"},
		{"AXLayoutArea", "group"},
		{"AXScrollArea", "scroll"},
		{"AXWebArea", "web"},
		{"AXWindow", "window"},
		{"AXApplication", "app"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := MapRole(tt.input)
			if got != tt.want {
				t.Errorf("MapRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapRole_UnknownFallback(t *testing.T) {
	unknowns := []string{"AXSlider", "AXProgressIndicator", "SomethingElse", ""}
	for _, role := range unknowns {
		got := MapRole(role)
		if got != "other" {
			t.Errorf("MapRole(%q) = %q, want %q", role, got, "other")
		}
	}
}

func TestExpandRoles(t *testing.T) {
	got := ExpandRoles([]string{"btn", "interactive", "group"})
	seen := map[string]int{}
	for _, r := range got {
		seen[r]++
	}
	if seen["btn"] != 1 {
		t.Errorf("btn should appear once, got %d", seen["btn"])
	}
	for _, want := range []string{"lnk", "input", "chk", "group"} {
		if seen[want] != 1 {
			t.Errorf("ExpandRoles missing %q: %v", want, got)
		}
	}
}

func TestInteractiveRoles_IsUnion(t *testing.T) {
	for r := range ClickableRoles {
		if !InteractiveRoles.Has(r) {
			t.Errorf("InteractiveRoles missing clickable %q", r)
		}
	}
	for r := range EditableTextRoles {
		if !InteractiveRoles.Has(r) {
			t.Errorf("InteractiveRoles missing editable %q", r)
		}
	}
	if len(InteractiveRoles) != len(ClickableRoles)+len(EditableTextRoles) {
		t.Errorf("InteractiveRoles has %d roles, want %d", len(InteractiveRoles), len(ClickableRoles)+len(EditableTextRoles))
	}
}

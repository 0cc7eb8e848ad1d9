package model

// RoleMap maps macOS AXRole values to compact role codes used in tree paths.
var RoleMap = map[string]string{
	"AXButton":      "btn",
	"AXStaticText":  "txt",
	"AXLink":        "lnk",
	"AXImage":       "img",
	"AXTextField":   "input",
	"AXTextArea":    "input",
	"AXSearchField": "input",
	"AXCheckBox":    "chk",
	"AXSwitch":      "toggle",
	"AXRadioButton": "radio",
	"AXPopUpButton": "popup",
	"AXComboBox":    "combo",
	"AXMenu":        "menu",
	"AXMenuBar":     "menu",
	"AXMenuBarItem": "menuitem",
	"AXMenuItem":    "menuitem",
	"AXTab":         "tab",
	"AXTabGroup":    "tab",
	"AXList":        "list",
	"AXTable":       "list",
	"AXRow":         "row",
	"AXCell":        "cell",
	"AXGroup":       "group",
	"AXSplitGroup":  "group",
	"AXLayoutArea":  "group",
	"AXScrollArea":  "scroll",
	"AXToolbar":     "toolbar",
	"AXWebArea":     "web",
	"AXWindow":      "window",
	"AXApplication": "app",
}

// MetaRoles maps meta-role names to the compact roles they expand to.
var MetaRoles = map[string][]string{
	"interactive": {"btn", "lnk", "input", "chk", "toggle", "radio", "popup", "combo", "menuitem", "tab"},
	"container":   {"group", "scroll", "list", "toolbar", "web", "window"},
}

// ExpandRoles expands any meta-roles in the given list to their concrete roles.
// Non-meta roles are passed through unchanged. Duplicates are removed.
func ExpandRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	var expanded []string
	for _, r := range roles {
		if concrete, ok := MetaRoles[r]; ok {
			for _, c := range concrete {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
			}
		} else if !seen[r] {
			seen[r] = true
			expanded = append(expanded, r)
		}
	}
	return expanded
}

// MapRole converts a raw accessibility role to a compact code.
func MapRole(axRole string) string {
	if short, ok := RoleMap[axRole]; ok {
		return short
	}
	return "other"
}

// RoleSet is a set of raw accessibility roles.
type RoleSet map[string]bool

func newRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = true
	}
	return s
}

// Has reports whether role is a member.
func (s RoleSet) Has(role string) bool {
	return s[role]
}

// Union returns a new set holding the members of s and o.
func (s RoleSet) Union(o RoleSet) RoleSet {
	u := make(RoleSet, len(s)+len(o))
	for r := range s {
		u[r] = true
	}
	for r := range o {
		u[r] = true
	}
	return u
}

var (
	// ClickableRoles accept a click as their primary interaction.
	ClickableRoles = newRoleSet("AXButton", "AXTab", "AXRadioButton", "AXCheckBox", "AXLink", "AXPopUpButton", "AXMenuItem")

	// EditableTextRoles accept typed text.
	EditableTextRoles = newRoleSet("AXTextField", "AXTextArea", "AXText", "AXTextBox", "AXSearchField", "AXEditableTextArea")

	// InteractiveRoles is the union of clickable and editable roles.
	InteractiveRoles = ClickableRoles.Union(EditableTextRoles)

	// ContainerRoles group other elements.
	ContainerRoles = newRoleSet("AXGroup", "AXToolbar", "AXScrollArea", "AXComboBox", "AXSplitGroup", "AXUnknown",
		"AXLayoutArea", "AXList", "AXTable", "AXWebArea", "AXWindow")

	// SafeContainerRoles may tolerate a single mismatch at the safety gate.
	SafeContainerRoles = newRoleSet("AXWebArea", "AXGroup", "AXScrollArea", "AXWindow", "AXApplication", "AXSplitGroup", "AXLayoutArea")

	// LabelCentricRoles are identified by their title as much as their role.
	LabelCentricRoles = newRoleSet("AXCheckBox", "AXButton", "AXRadioButton", "AXTab", "AXLink", "AXMenuItem", "AXPopUpButton")

	// TextContentRoles hold bulk text and are pruned from searches.
	TextContentRoles = newRoleSet("AXText", "AXStaticText", "AXCell", "AXRow")

	// BulkContainerRoles can hold very many rows.
	BulkContainerRoles = newRoleSet("AXTable", "AXList")

	// UIControlContainers are containers that usually hold controls.
	UIControlContainers = newRoleSet("AXToolbar", "AXMenuBar", "AXTabGroup", "AXSplitGroup", "AXPopUpButton", "AXComboBox", "AXGroup")

	// DirectClickRoles are recorded containers replayed at their raw click point.
	DirectClickRoles = newRoleSet("AXGroup", "AXHostingView", "AXSplitGroup", "AXScrollArea")

	// MenuRoles are pressed through the menu bar instead of the pipeline.
	MenuRoles = newRoleSet("AXMenu", "AXMenuBar", "AXMenuBarItem", "AXMenuItem")

	// BiasedClickRoles get a click offset toward their leading edge.
	BiasedClickRoles = newRoleSet("AXCheckBox", "AXRadioButton", "AXButton", "AXTab", "AXPopUpButton")
)

package model

import "strings"

// FilterElements keeps elements whose compact role code is in roles and whose
// frame intersects bbox. Non-matching elements with matching descendants are
// replaced by those descendants. Elements without a frame pass the bbox test.
func FilterElements(elements []Element, roles []string, bbox *Rect) []Element {
	if len(roles) == 0 && bbox == nil {
		return elements
	}

	codes := make(map[string]bool, len(roles))
	for _, r := range ExpandRoles(roles) {
		codes[r] = true
	}

	var result []Element
	for _, el := range elements {
		children := FilterElements(el.Children, roles, bbox)

		roleMatch := len(codes) == 0 || codes[MapRole(el.Role)]
		bboxMatch := bbox == nil || el.Frame == nil || el.Frame.Intersects(*bbox)

		if roleMatch && bboxMatch {
			kept := el
			kept.Children = children
			result = append(result, kept)
		} else if len(children) > 0 {
			result = append(result, children...)
		}
	}
	return result
}

// FilterByText keeps elements whose title, value, description or help
// contains text, case-insensitively, along with the ancestors of matches.
func FilterByText(elements []Element, text string) []Element {
	if text == "" {
		return elements
	}
	needle := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		children := FilterByText(el.Children, text)
		if textMatches(el, needle) || len(children) > 0 {
			kept := el
			kept.Children = children
			result = append(result, kept)
		}
	}
	return result
}

func textMatches(el Element, needle string) bool {
	for _, s := range []string{el.Title, el.Value, el.Description, el.Help} {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// isAnonymousGroup reports a group-like node with no label of its own.
func isAnonymousGroup(el Element) bool {
	code := MapRole(el.Role)
	return (code == "group" || code == "other") &&
		el.Title == "" && el.Value == "" && el.Description == "" && len(el.Actions) == 0
}

// PruneEmptyGroups drops anonymous group nodes and promotes their children.
func PruneEmptyGroups(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		children := PruneEmptyGroups(el.Children)
		if isAnonymousGroup(el) {
			result = append(result, children...)
			continue
		}
		kept := el
		kept.Children = children
		result = append(result, kept)
	}
	return result
}

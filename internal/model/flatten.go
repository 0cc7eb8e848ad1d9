package model

// FlatElement is a tree node with a path breadcrumb instead of children.
type FlatElement struct {
	Index   int      `yaml:"i"           json:"i"`
	Depth   int      `yaml:"depth"       json:"depth"`
	Role    string   `yaml:"role"        json:"role"`
	Title   string   `yaml:"title,omitempty" json:"title,omitempty"`
	Label   string   `yaml:"label,omitempty" json:"label,omitempty"`
	Frame   *Rect    `yaml:"frame,omitempty" json:"frame,omitempty"`
	Actions []string `yaml:"actions,omitempty" json:"actions,omitempty"`
	Path    string   `yaml:"path"        json:"path"`
}

// ChildPath extends a breadcrumb with the compact code of role, joined with " > ".
func ChildPath(parentPath, role string) string {
	code := MapRole(role)
	if parentPath == "" {
		return code
	}
	return parentPath + " > " + code
}

// FlattenElements converts a tree of fixture elements into a flat list in
// depth-first order, each with its role path.
func FlattenElements(elements []Element) []FlatElement {
	var result []FlatElement
	for _, el := range elements {
		flattenRecursive(el, "", 0, &result)
	}
	return result
}

func flattenRecursive(el Element, parentPath string, depth int, result *[]FlatElement) {
	path := ChildPath(parentPath, el.Role)
	*result = append(*result, FlatElement{
		Index:   len(*result),
		Depth:   depth,
		Role:    el.Role,
		Title:   el.Title,
		Label:   LabelFromAttributes(el.Title, el.Description, el.Value, el.Help),
		Frame:   el.Frame,
		Actions: el.Actions,
		Path:    path,
	})
	for _, child := range el.Children {
		flattenRecursive(child, path, depth+1, result)
	}
}

// Package snapshot serves a recorded UI tree through the platform interfaces.
// Every input event and action is logged so callers can assert on what a
// resolution attempt actually did.
package snapshot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-replay/internal/model"
)

// Fixture is the on-disk description of a desktop: running applications,
// their windows and menu bars, and which one is frontmost.
type Fixture struct {
	Frontmost int          `yaml:"frontmost" json:"frontmost"`
	Clipboard string       `yaml:"clipboard,omitempty" json:"clipboard,omitempty"`
	Apps      []FixtureApp `yaml:"apps" json:"apps"`
}

// FixtureApp is one running application.
type FixtureApp struct {
	Name     string          `yaml:"name" json:"name"`
	PID      int             `yaml:"pid" json:"pid"`
	BundleID string          `yaml:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	MenuBar  *model.Element  `yaml:"menu_bar,omitempty" json:"menu_bar,omitempty"`
	Windows  []model.Element `yaml:"windows,omitempty" json:"windows,omitempty"`
}

// Load reads a YAML or JSON fixture file.
func Load(path string) (*Desktop, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree fixture: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes fixture bytes. JSON is accepted as YAML.
func Parse(data []byte) (*Desktop, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tree fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return New(f), nil
}

func (f Fixture) validate() error {
	seen := make(map[int]bool, len(f.Apps))
	for _, a := range f.Apps {
		if a.PID <= 0 {
			return fmt.Errorf("app %q: pid must be positive", a.Name)
		}
		if seen[a.PID] {
			return fmt.Errorf("app %q: duplicate pid %d", a.Name, a.PID)
		}
		seen[a.PID] = true
	}
	if f.Frontmost != 0 && !seen[f.Frontmost] {
		return fmt.Errorf("frontmost pid %d is not a listed app", f.Frontmost)
	}
	return nil
}

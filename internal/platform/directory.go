package platform

import (
	"fmt"
	"strings"

	"github.com/mj1618/desktop-replay/internal/model"
)

// ListWindows returns the windows of every running application, optionally
// limited to applications whose name contains app (case-insensitive).
func ListWindows(d AppDirectory, app string) ([]model.Window, error) {
	apps, err := d.RunningApps()
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	needle := strings.ToLower(strings.TrimSpace(app))
	var out []model.Window
	for _, a := range apps {
		if needle != "" && !strings.Contains(strings.ToLower(a.Name), needle) {
			continue
		}
		wins, err := d.Windows(a.PID)
		if err != nil {
			return nil, fmt.Errorf("listing windows of %s: %w", a.Name, err)
		}
		out = append(out, wins...)
	}
	return out, nil
}

// FrontmostPID returns the pid of the frontmost application, or 0.
func FrontmostPID(d AppDirectory) int {
	a, err := d.Frontmost()
	if err != nil {
		return 0
	}
	return a.PID
}

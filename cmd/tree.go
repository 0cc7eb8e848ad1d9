package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/platform"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print an application's element tree with role paths",
	Long: `Read the accessibility tree of an application (the frontmost one by
default) and print it flattened, one element per line with its role path.

Examples:
  desktop-replay tree
  desktop-replay tree --app Mail --depth 4
  desktop-replay tree --app Mail --roles btn,input --text send
  desktop-replay tree --app Mail --bbox 100,500,800,200 --prune`,
	RunE: runTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().String("app", "", "Application name (default: frontmost)")
	treeCmd.Flags().Int("depth", 0, "Max depth to traverse (0 = unlimited)")
	treeCmd.Flags().String("roles", "", "Keep only these role codes (e.g. \"btn,lnk\")")
	treeCmd.Flags().String("text", "", "Keep elements whose text contains this")
	treeCmd.Flags().String("bbox", "", "Keep elements intersecting this box: x,y,w,h")
	treeCmd.Flags().Bool("prune", false, "Drop unlabelled groups and promote their children")
}

func runTree(cmd *cobra.Command, args []string) error {
	appName, _ := cmd.Flags().GetString("app")
	depth, _ := cmd.Flags().GetInt("depth")
	roles, _ := cmd.Flags().GetString("roles")
	text, _ := cmd.Flags().GetString("text")
	bboxStr, _ := cmd.Flags().GetString("bbox")
	prune, _ := cmd.Flags().GetBool("prune")

	var bbox *model.Rect
	if bboxStr != "" {
		b, err := platform.ParseBBox(bboxStr)
		if err != nil {
			return err
		}
		bbox = b
	}

	provider, err := newProvider()
	if err != nil {
		return err
	}
	if provider.Apps == nil || provider.Reader == nil {
		return fmt.Errorf("accessibility tree not available on this platform")
	}

	app, err := findApp(provider.Apps, appName)
	if err != nil {
		return err
	}
	root, err := provider.Apps.ApplicationNode(app.PID)
	if err != nil {
		return err
	}

	tree := platform.ReadTree(provider.Reader, root, depth)
	elements := model.FilterElements(tree.Children, splitList(roles), bbox)
	elements = model.FilterByText(elements, text)
	if prune {
		elements = model.PruneEmptyGroups(elements)
	}

	result := output.TreeResult{
		App:      app.Name,
		PID:      app.PID,
		Window:   focusedWindowTitle(provider.Apps, app.PID),
		TS:       time.Now().Unix(),
		Elements: model.FlattenElements(elements),
	}
	if result.Elements == nil {
		result.Elements = []model.FlatElement{}
	}
	return output.Print(result)
}

// findApp returns the running application whose name matches name exactly
// (case-insensitive), else the first containing it. An empty name selects
// the frontmost application.
func findApp(d platform.AppDirectory, name string) (model.App, error) {
	if name == "" {
		return d.Frontmost()
	}
	apps, err := d.RunningApps()
	if err != nil {
		return model.App{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, a := range apps {
		if strings.ToLower(a.Name) == needle {
			return a, nil
		}
	}
	for _, a := range apps {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			return a, nil
		}
	}
	return model.App{}, fmt.Errorf("no running application matches %q", name)
}

func focusedWindowTitle(d platform.AppDirectory, pid int) string {
	windows, err := d.Windows(pid)
	if err != nil || len(windows) == 0 {
		return ""
	}
	for _, w := range windows {
		if w.Focused || w.Main {
			return w.Title
		}
	}
	return windows[0].Title
}

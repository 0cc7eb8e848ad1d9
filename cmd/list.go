package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/platform"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List running applications and their windows",
	Long:  "List open windows with their app name, title, PID and frame, or running applications with --apps.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("apps", false, "List running applications")
	listCmd.Flags().String("app", "", "Filter windows by app name")
}

func runList(cmd *cobra.Command, args []string) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}

	apps, _ := cmd.Flags().GetBool("apps")
	appName, _ := cmd.Flags().GetString("app")

	if provider.Apps == nil {
		return fmt.Errorf("app directory not available on this platform")
	}

	if apps {
		running, err := provider.Apps.RunningApps()
		if err != nil {
			return err
		}
		return output.Print(output.AppEntries(running, platform.FrontmostPID(provider.Apps)))
	}

	windows, err := platform.ListWindows(provider.Apps, appName)
	if err != nil {
		return err
	}
	if windows == nil {
		windows = []model.Window{}
	}
	return output.Print(windows)
}

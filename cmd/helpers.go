package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/overlay"
	"github.com/mj1618/desktop-replay/internal/platform"
	"github.com/mj1618/desktop-replay/internal/platform/snapshot"
	"github.com/mj1618/desktop-replay/internal/resolve"
)

// newProvider returns the snapshot backend when --tree is set, otherwise the
// registered live backend.
func newProvider() (*platform.Provider, error) {
	path, _ := rootCmd.PersistentFlags().GetString("tree")
	if path == "" {
		return platform.NewProvider()
	}
	d, err := snapshot.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("using snapshot desktop", "tree", path)
	return d.Provider(), nil
}

// newEngine builds a resolver over p with the loaded configuration.
func newEngine(p *platform.Provider) (*resolve.Engine, error) {
	return resolve.New(p, appConfig, resolve.WithLogger(logger))
}

// resolveOptions reads the step execution flags shared by resolve and replay.
func resolveOptions(cmd *cobra.Command, e *resolve.Engine) resolve.Options {
	opts := e.DefaultOptions()
	opts.Execute, _ = cmd.Flags().GetBool("click")
	opts.Debug, _ = rootCmd.PersistentFlags().GetBool("debug")
	if f := cmd.Flags().Lookup("hover"); f != nil {
		opts.DryHover, _ = cmd.Flags().GetBool("hover")
	}
	if cmd.Flags().Changed("safe-click") {
		opts.SafeClick, _ = cmd.Flags().GetBool("safe-click")
	}
	if n, _ := cmd.Flags().GetInt("retries"); n > 0 {
		opts.MaxAttempts = n
	}
	return opts
}

// addExecutionFlags adds the flags read by resolveOptions.
func addExecutionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("click", false, "Perform the recorded action (default: validate and hover only)")
	cmd.Flags().Bool("safe-click", true, "Refuse to act on elements with remaining mismatches (default from config)")
	cmd.Flags().Int("retries", 0, "Attempts per step before escalation (0 = from config)")
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// diagnosticScene converts the geometry of a resolution into an overlay
// scene. It fails when the window frame was never read.
func diagnosticScene(rec *model.RecordedSignature, res *resolve.Result) (overlay.Scene, error) {
	if res == nil || res.Diagnostics == nil || res.Diagnostics.WindowFrame == nil {
		return overlay.Scene{}, fmt.Errorf("no window geometry to draw")
	}
	d := res.Diagnostics
	s := overlay.Scene{
		Window:     *d.WindowFrame,
		Predicted:  d.Predicted,
		Candidates: d.Candidates,
		Final:      d.Final,
		Title:      rec.RecordedLabel(),
	}
	if res.Element != nil {
		s.Element = res.Element.Frame
	}
	return s, nil
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/output"
)

const mailTree = `
frontmost: 300
apps:
  - name: Finder
    pid: 100
    windows:
      - title: Downloads
        frame: {x: 0, y: 0, w: 400, h: 300}
  - name: Mail
    pid: 300
    bundle_id: com.apple.mail
    windows:
      - title: Inbox (12) - me@example.com
        main: true
        frame: {x: 100, y: 100, w: 800, h: 600}
        children:
          - role: AXGroup
            frame: {x: 100, y: 100, w: 800, h: 60}
            children:
              - role: AXButton
                title: Compose
                frame: {x: 110, y: 110, w: 80, h: 30}
                actions: [AXPress]
          - role: AXButton
            title: Send
            frame: {x: 360, y: 520, w: 80, h: 40}
            actions: [AXPress]
`

const mailRecording = `[
  {
    "role": "AXButton",
    "title": "Compose",
    "best_label": "compose",
    "app_name": "Mail",
    "window_frame": {"x": 0, "y": 0, "w": 800, "h": 600},
    "click_frac": {"fx": 0.0625, "fy": 0.041666666666666664},
    "click_index": 0
  },
  {
    "role": "AXButton",
    "title": "Send",
    "best_label": "send",
    "app_name": "Mail",
    "window_title": "Inbox (3) - me@example.com",
    "window_frame": {"x": 0, "y": 0, "w": 800, "h": 600},
    "click_frac": {"fx": 0.375, "fy": 0.7333333333333333},
    "click_index": 1
  }
]`

// writeFixtures writes a tree fixture and a recording into a temp dir.
func writeFixtures(t *testing.T) (tree, rec string) {
	t.Helper()
	dir := t.TempDir()
	tree = filepath.Join(dir, "desktop.yaml")
	rec = filepath.Join(dir, "steps.json")
	require.NoError(t, os.WriteFile(tree, []byte(mailTree), 0o644))
	require.NoError(t, os.WriteFile(rec, []byte(mailRecording), 0o644))
	return tree, rec
}

// resetFlags restores every flag of c and its subcommands to its default so
// runs in one test binary do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	oldStdout, oldFormat, oldPretty := output.Stdout, output.OutputFormat, output.PrettyOutput
	t.Cleanup(func() {
		output.Stdout, output.OutputFormat, output.PrettyOutput = oldStdout, oldFormat, oldPretty
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"resolve", "replay", "inspect", "steps", "list", "tree", "serve"}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"format", "pretty", "debug", "config", "tree"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q not found", name)
		}
	}
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	tree, rec := writeFixtures(t)
	_, err := run(t, "steps", rec, "--tree", tree, "--format", "xml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported format")
}

func TestRootCommand_BadConfig(t *testing.T) {
	_, rec := writeFixtures(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("retry:\n  attempts: 0\n"), 0o644))
	_, err := run(t, "steps", rec, "--config", cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "loading config")
}

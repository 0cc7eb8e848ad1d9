package cmd

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/recording"
	"github.com/mj1618/desktop-replay/internal/resolve"
)

type resolveOut struct {
	Index  int `yaml:"index" json:"index"`
	Total  int `yaml:"total" json:"total"`
	Result struct {
		Success  bool   `yaml:"success"  json:"success"`
		Executed bool   `yaml:"executed" json:"executed"`
		Method   string `yaml:"method"   json:"method"`
		Attempts int    `yaml:"attempts" json:"attempts"`
	} `yaml:"result" json:"result"`
	Error string `yaml:"error" json:"error"`
}

func TestStepsCommand(t *testing.T) {
	_, rec := writeFixtures(t)
	out, err := run(t, "steps", rec)
	require.NoError(t, err)

	var summary output.StepsSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 2, summary.Total)
	require.Len(t, summary.Steps, 2)
	assert.Equal(t, "compose", summary.Steps[0].Label)
	assert.Equal(t, "Inbox (3) - me@example.com", summary.Steps[1].Window)
}

func TestStepsCommand_MissingFile(t *testing.T) {
	_, err := run(t, "steps", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestResolveCommand_ValidateOnly(t *testing.T) {
	tree, rec := writeFixtures(t)
	out, err := run(t, "resolve", rec, "--tree", tree)
	require.NoError(t, err)

	var got resolveOut
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Index, "defaults to the last step")
	assert.Equal(t, 2, got.Total)
	assert.True(t, got.Result.Success)
	assert.False(t, got.Result.Executed)
	assert.Equal(t, resolve.MethodHover, got.Result.Method)
}

func TestResolveCommand_ClickJSON(t *testing.T) {
	tree, rec := writeFixtures(t)
	out, err := run(t, "resolve", rec, "--tree", tree, "--index", "0", "--click", "--format", "json")
	require.NoError(t, err)

	var got resolveOut
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 0, got.Index)
	assert.True(t, got.Result.Executed)
	assert.Equal(t, resolve.MethodPress, got.Result.Method)
	assert.Equal(t, 1, got.Result.Attempts)
}

func TestResolveCommand_DiagnosticImage(t *testing.T) {
	tree, rec := writeFixtures(t)
	img := filepath.Join(t.TempDir(), "diag.png")
	_, err := run(t, "resolve", rec, "--tree", tree, "--diag-image", img)
	require.NoError(t, err)

	f, err := os.Open(img)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())
	assert.Equal(t, 600, decoded.Bounds().Dy())
}

func TestResolveCommand_IndexOutOfRange(t *testing.T) {
	tree, rec := writeFixtures(t)
	_, err := run(t, "resolve", rec, "--tree", tree, "--index", "9")
	require.ErrorIs(t, err, recording.ErrIndexOutOfRange)
}

func TestResolveCommand_NoBackend(t *testing.T) {
	_, rec := writeFixtures(t)
	_, err := run(t, "resolve", rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--tree")
}

func TestReplayCommand(t *testing.T) {
	tree, rec := writeFixtures(t)
	out, err := run(t, "replay", rec, "--tree", tree, "--click")
	require.NoError(t, err)

	var report output.ReplayReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, resolve.MethodPress, report.Steps[0].Method)
	assert.Equal(t, "send", report.Steps[1].Label)
}

func TestReplayCommand_StopOnError(t *testing.T) {
	tree, _ := writeFixtures(t)
	steps := []byte(`[
  {"role": "AXButton", "title": "Delete Forever", "app_name": "Mail",
   "window_frame": {"x": 0, "y": 0, "w": 800, "h": 600},
   "click_frac": {"fx": 0.9, "fy": 0.9}},
  {"role": "AXButton", "title": "Send", "app_name": "Mail",
   "window_frame": {"x": 0, "y": 0, "w": 800, "h": 600},
   "click_frac": {"fx": 0.375, "fy": 0.7333333333333333}}
]`)
	rec := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(rec, steps, 0o644))

	out, err := run(t, "replay", rec, "--tree", tree, "--click", "--retries", "1", "--stop-on-error")
	require.Error(t, err)

	var report output.ReplayReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.True(t, report.Stopped)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Steps, 1)
	assert.False(t, report.Steps[0].Success)
	assert.NotEmpty(t, report.Steps[0].Error)
}

func TestReplayCommand_Range(t *testing.T) {
	tree, rec := writeFixtures(t)
	out, err := run(t, "replay", rec, "--tree", tree, "--from", "1")
	require.NoError(t, err)
	var report output.ReplayReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Len(t, report.Steps, 1)
	assert.Equal(t, 1, report.Steps[0].Index)

	_, err = run(t, "replay", rec, "--tree", tree, "--from", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid step range")
}

func TestInspectCommand_SaveAppends(t *testing.T) {
	tree, _ := writeFixtures(t)
	buf := filepath.Join(t.TempDir(), "buffer.json")

	out, err := run(t, "inspect", "--tree", tree, "--x", "400", "--y", "540", "--save", buf)
	require.NoError(t, err)
	assert.Contains(t, out, "title: Send")

	_, err = run(t, "inspect", "--tree", tree, "--x", "150", "--y", "125", "--save", buf)
	require.NoError(t, err)

	steps, err := recording.LoadAll(buf)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Send", steps[0].Title)
	assert.Equal(t, 0, steps[0].ClickIndex)
	assert.Equal(t, "Compose", steps[1].Title)
	assert.Equal(t, 1, steps[1].ClickIndex)
	assert.Equal(t, resolve.SchemaVersion, steps[1].SchemaVersion)
}

func TestInspectCommand_RequiresCoordinates(t *testing.T) {
	tree, _ := writeFixtures(t)
	_, err := run(t, "inspect", "--tree", tree, "--x", "10")
	require.Error(t, err)
}

func TestListCommand_Apps(t *testing.T) {
	tree, _ := writeFixtures(t)
	out, err := run(t, "list", "--tree", tree, "--apps")
	require.NoError(t, err)

	var apps []output.AppEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &apps))
	require.Len(t, apps, 2)
	assert.Equal(t, "Finder", apps[0].App)
	assert.True(t, apps[1].Front)
	assert.Equal(t, "com.apple.mail", apps[1].BundleID)
}

func TestListCommand_Windows(t *testing.T) {
	tree, _ := writeFixtures(t)
	out, err := run(t, "list", "--tree", tree, "--app", "finder")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Downloads")
	assert.NotContains(t, out, "Inbox")
}

func TestTreeCommand(t *testing.T) {
	tree, _ := writeFixtures(t)
	out, err := run(t, "tree", "--tree", tree, "--roles", "btn")
	require.NoError(t, err)

	var result output.TreeResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	assert.Equal(t, "Mail", result.App)
	assert.Equal(t, 300, result.PID)
	assert.Equal(t, "Inbox (12) - me@example.com", result.Window)
	require.Len(t, result.Elements, 2)
	assert.Equal(t, "Compose", result.Elements[0].Title)
	assert.Equal(t, "btn", result.Elements[1].Path)

	out, err = run(t, "tree", "--tree", tree, "--app", "Mail", "--roles", "btn", "--text", "send")
	require.NoError(t, err)
	result = output.TreeResult{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "Send", result.Elements[0].Title)
}

func TestTreeCommand_Depth(t *testing.T) {
	tree, _ := writeFixtures(t)
	out, err := run(t, "tree", "--tree", tree, "--app", "finder", "--depth", "1")
	require.NoError(t, err)

	var result output.TreeResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "AXWindow", result.Elements[0].Role)
	assert.Equal(t, "window", result.Elements[0].Path)
}

func TestTreeCommand_UnknownApp(t *testing.T) {
	tree, _ := writeFixtures(t)
	_, err := run(t, "tree", "--tree", tree, "--app", "Xcode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Xcode")
}

func TestTreeCommand_BBoxPrune(t *testing.T) {
	tree, _ := writeFixtures(t)
	out, err := run(t, "tree", "--tree", tree, "--roles", "btn", "--bbox", "100,500,800,200")
	require.NoError(t, err)
	var result output.TreeResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	require.Len(t, result.Elements, 1)
	assert.Equal(t, "Send", result.Elements[0].Title)

	out, err = run(t, "tree", "--tree", tree, "--prune")
	require.NoError(t, err)
	assert.NotContains(t, out, "AXGroup")
	assert.Contains(t, out, "title: Compose")

	_, err = run(t, "tree", "--tree", tree, "--bbox", "1,2")
	require.Error(t, err)
}

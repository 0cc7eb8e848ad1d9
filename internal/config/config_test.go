package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20000, cfg.Search.MaxNodes)
	assert.Equal(t, 60*time.Second, cfg.Search.TimeBudget)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 150*time.Millisecond, cfg.Timing.RetryDelay)
}

func TestParse_OverridesSubset(t *testing.T) {
	data := []byte(`
search:
  max_nodes: 500
  time_budget: 2s
timing:
  retry_delay: 0s
trusted_apps: ["Google Chrome", "Slack"]
app_aliases:
  slack: [slack]
`)
	base := Default()
	cfg, err := Parse(data, base)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Search.MaxNodes)
	assert.Equal(t, 25, cfg.Search.MaxDepth, "untouched fields keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Search.TimeBudget)
	assert.Zero(t, cfg.Timing.RetryDelay)
	assert.True(t, cfg.IsTrusted("slack"))
	assert.Contains(t, cfg.AppAliases, "chrome")
	assert.Contains(t, cfg.AppAliases, "slack")
	assert.NotContains(t, base.AppAliases, "slack", "base must not be mutated")
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero nodes", "search: {max_nodes: 0}"},
		{"score above one", "search: {accept_score: 1.5}"},
		{"zero step", "neighbor: {step: 0}"},
		{"too many attempts", "retry: {attempts: 50}"},
		{"negative delay", "timing: {click_delay: -1s}"},
		{"empty deny entry", `deny_list: [""]`},
		{"not yaml", "search: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), Default())
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "replay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safe_click: false\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.SafeClick)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsDenied(" SystemUIServer "))
	assert.False(t, cfg.IsDenied("Mail"))
	assert.True(t, cfg.IsTrusted("google chrome"))
	assert.True(t, cfg.IsGenericTitle("New Tab"))
	assert.False(t, cfg.IsGenericTitle("Inbox"))

	quiet := cfg.NoDelays()
	assert.Zero(t, quiet.Timing.ActivationDelay)
	assert.NotZero(t, cfg.Timing.ActivationDelay)
}

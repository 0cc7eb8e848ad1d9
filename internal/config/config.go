// Package config holds the resolver's tuning knobs. Every value has a
// default; a YAML file may override any subset of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SearchConfig bounds the tree searches.
type SearchConfig struct {
	MaxDepth      int           `yaml:"max_depth" json:"max_depth" validate:"min=1,max=200"`
	MaxNodes      int           `yaml:"max_nodes" json:"max_nodes" validate:"min=1"`
	TimeBudget    time.Duration `yaml:"time_budget" json:"time_budget" validate:"gt=0"`
	QuickMaxDepth int           `yaml:"quick_max_depth" json:"quick_max_depth" validate:"min=1"`
	QuickMaxNodes int           `yaml:"quick_max_nodes" json:"quick_max_nodes" validate:"min=1"`
	AcceptScore   float64       `yaml:"accept_score" json:"accept_score" validate:"gte=0,lte=1"`
}

// NeighborConfig sizes the hit-test grids around a seed point.
type NeighborConfig struct {
	Radius      int `yaml:"radius" json:"radius" validate:"gte=0"`
	Step        int `yaml:"step" json:"step" validate:"min=1"`
	TightRadius int `yaml:"tight_radius" json:"tight_radius" validate:"gte=0"`
	TightStep   int `yaml:"tight_step" json:"tight_step" validate:"min=1"`
}

// TimingConfig holds the settle delays after state-changing actions.
type TimingConfig struct {
	HoverDelay      time.Duration `yaml:"hover_delay" json:"hover_delay" validate:"gte=0"`
	ClickDelay      time.Duration `yaml:"click_delay" json:"click_delay" validate:"gte=0"`
	ActivationDelay time.Duration `yaml:"activation_delay" json:"activation_delay" validate:"gte=0"`
	MenuDelay       time.Duration `yaml:"menu_delay" json:"menu_delay" validate:"gte=0"`
	RetryDelay      time.Duration `yaml:"retry_delay" json:"retry_delay" validate:"gte=0"`
}

// RetryConfig bounds the attempt loop.
type RetryConfig struct {
	Attempts int `yaml:"attempts" json:"attempts" validate:"min=1,max=20"`
}

// Config is the full resolver configuration.
type Config struct {
	Search        SearchConfig        `yaml:"search" json:"search"`
	Neighbor      NeighborConfig      `yaml:"neighbor" json:"neighbor"`
	Timing        TimingConfig        `yaml:"timing" json:"timing"`
	Retry         RetryConfig         `yaml:"retry" json:"retry"`
	TrustedApps   []string            `yaml:"trusted_apps" json:"trusted_apps" validate:"dive,required"`
	DenyList      []string            `yaml:"deny_list" json:"deny_list" validate:"dive,required"`
	AppAliases    map[string][]string `yaml:"app_aliases" json:"app_aliases" validate:"dive,keys,required,endkeys,min=1"`
	GenericTitles []string            `yaml:"generic_titles" json:"generic_titles"`
	SafeClick     bool                `yaml:"safe_click" json:"safe_click"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			MaxDepth:      25,
			MaxNodes:      20000,
			TimeBudget:    60 * time.Second,
			QuickMaxDepth: 5,
			QuickMaxNodes: 800,
			AcceptScore:   0.55,
		},
		Neighbor: NeighborConfig{Radius: 16, Step: 4, TightRadius: 10, TightStep: 2},
		Timing: TimingConfig{
			HoverDelay:      60 * time.Millisecond,
			ClickDelay:      10 * time.Millisecond,
			ActivationDelay: 180 * time.Millisecond,
			MenuDelay:       120 * time.Millisecond,
			RetryDelay:      150 * time.Millisecond,
		},
		Retry:       RetryConfig{Attempts: 3},
		TrustedApps: []string{"Google Chrome"},
		DenyList: []string{
			"loginwindow", "WindowServer", "SystemUIServer", "ControlCenter",
			"NotificationCenter", "Spotlight", "launchd", "universalaccessd",
		},
		AppAliases: map[string][]string{
			"chrome":  {"google chrome", "chrome"},
			"gmail":   {"google chrome", "chrome"},
			"finder":  {"finder", "recents", "documents", "downloads"},
			"safari":  {"safari"},
			"firefox": {"firefox", "mozilla firefox"},
		},
		GenericTitles: []string{"new tab", "tab", "untitled", "document", "home", "start page"},
		SafeClick:     true,
	}
}

// NoDelays returns a copy of c with every settle delay set to zero.
func (c *Config) NoDelays() *Config {
	cp := *c
	cp.Timing = TimingConfig{}
	return &cp
}

var validate = validator.New()

// Validate checks field bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes YAML over base and validates the result.
func Parse(data []byte, base *Config) (*Config, error) {
	cfg := *base
	// yaml.v3 merges into an existing map; keep base untouched.
	cfg.AppAliases = make(map[string][]string, len(base.AppAliases))
	for k, v := range base.AppAliases {
		cfg.AppAliases[k] = v
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDenied reports whether an application name is on the deny list.
func (c *Config) IsDenied(name string) bool {
	for _, d := range c.DenyList {
		if strings.EqualFold(d, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// IsTrusted reports whether a canonical application name is trusted.
func (c *Config) IsTrusted(name string) bool {
	for _, t := range c.TrustedApps {
		if strings.EqualFold(t, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// IsGenericTitle reports a recorded window title that carries no identity.
func (c *Config) IsGenericTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, g := range c.GenericTitles {
		if t == g {
			return true
		}
	}
	return false
}

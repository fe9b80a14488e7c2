// Package config defines the jlens configuration file and its embedded
// defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv overrides ai.api_key when set.
const APIKeyEnv = "JLENS_API_KEY"

//go:embed default_config.yaml
var embeddedDefault []byte

// DefaultYAML returns a copy of the embedded defaults.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefault...)
}

// Config is the merged configuration.
type Config struct {
	Viewer Viewer `yaml:"viewer" json:"viewer"`
	AI     AI     `yaml:"ai" json:"ai"`
}

// Viewer controls rendering.
type Viewer struct {
	FontSize    int   `yaml:"font_size" json:"font_size"`
	IndentWidth int   `yaml:"indent_width" json:"indent_width"`
	BranchCap   int   `yaml:"branch_cap" json:"branch_cap"`
	ExpandDepth int   `yaml:"expand_depth" json:"expand_depth"`
	Theme       Theme `yaml:"theme" json:"theme"`
}

// Theme holds terminal colors as ANSI codes or hex strings.
type Theme struct {
	Key         string `yaml:"key" json:"key"`
	String      string `yaml:"string" json:"string"`
	Number      string `yaml:"number" json:"number"`
	Bool        string `yaml:"bool" json:"bool"`
	Null        string `yaml:"null" json:"null"`
	Meta        string `yaml:"meta" json:"meta"`
	HighlightFG string `yaml:"highlight_fg" json:"highlight_fg"`
	HighlightBG string `yaml:"highlight_bg" json:"highlight_bg"`
	SelectedFG  string `yaml:"selected_fg" json:"selected_fg"`
	SelectedBG  string `yaml:"selected_bg" json:"selected_bg"`
	Status      string `yaml:"status" json:"status"`
	Error       string `yaml:"error" json:"error"`
}

// AI configures the completion service.
type AI struct {
	APIKey     string        `yaml:"api_key" json:"api_key"`
	Model      string        `yaml:"model" json:"model"`
	Models     []Model       `yaml:"models" json:"models"`
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxContext int           `yaml:"max_context" json:"max_context"`
}

// Model is a selectable model: a display name and the API identifier.
type Model struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Enabled reports whether an API key is configured.
func (a AI) Enabled() bool { return strings.TrimSpace(a.APIKey) != "" }

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(embeddedDefault, &cfg); err != nil {
		return cfg, fmt.Errorf("decode embedded default config: %w", err)
	}
	return cfg, nil
}

// Overlay decodes data on top of cfg; fields absent from data keep their
// current values. A models list in data is appended to the existing one.
func Overlay(cfg Config, data []byte) (Config, error) {
	base := cfg.AI.Models
	cfg.AI.Models = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.AI.Models = MergeModels(base, cfg.AI.Models)
	return cfg, nil
}

// MergeModels appends extra to base, skipping entries whose value is blank
// or already present. A blank name falls back to the value.
func MergeModels(base, extra []Model) []Model {
	out := make([]Model, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, m := range append(append([]Model{}, base...), extra...) {
		m.Value = strings.TrimSpace(m.Value)
		if m.Value == "" {
			continue
		}
		if _, dup := seen[m.Value]; dup {
			continue
		}
		seen[m.Value] = struct{}{}
		if strings.TrimSpace(m.Name) == "" {
			m.Name = m.Value
		}
		out = append(out, m)
	}
	return out
}

// Validate rejects values the viewer cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Viewer.BranchCap <= 0 {
		errs = append(errs, fmt.Errorf("viewer.branch_cap must be positive, got %d", c.Viewer.BranchCap))
	}
	if c.Viewer.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("viewer.font_size must be positive, got %d", c.Viewer.FontSize))
	}
	if c.Viewer.IndentWidth < 0 {
		errs = append(errs, fmt.Errorf("viewer.indent_width must be non-negative, got %d", c.Viewer.IndentWidth))
	}
	if c.AI.MaxContext <= 0 {
		errs = append(errs, fmt.Errorf("ai.max_context must be positive, got %d", c.AI.MaxContext))
	}
	if c.AI.Timeout < 0 {
		errs = append(errs, fmt.Errorf("ai.timeout must be non-negative, got %s", c.AI.Timeout))
	}
	if strings.TrimSpace(c.AI.Model) == "" {
		errs = append(errs, errors.New("ai.model must be set"))
	}
	return errors.Join(errs...)
}

// IndentColumns converts the pixel indent of the browser viewer into
// terminal columns: roughly one column per 10px, at least 1.
func (v Viewer) IndentColumns() int {
	return max(v.IndentWidth/10, 1)
}

// Masked returns a copy safe to print: the API key is reduced to its last
// four characters.
func (c Config) Masked() Config {
	key := c.AI.APIKey
	switch {
	case key == "":
	case len(key) <= 4:
		c.AI.APIKey = "****"
	default:
		c.AI.APIKey = "****" + key[len(key)-4:]
	}
	c.AI.Models = append([]Model(nil), c.AI.Models...)
	return c
}

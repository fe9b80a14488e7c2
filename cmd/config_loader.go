package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/pkg/settings"
)

// resolveConfigPath returns the explicit file if set, otherwise the XDG path
// ($XDG_CONFIG_HOME/jlens/config.yaml) or ~/.config/jlens/config.yaml when
// it exists.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate != "" {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}

// loadConfig merges the embedded defaults, the config file at path (if any)
// and the API key environment variable, then validates the result.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Default()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if cfg, err = config.Overlay(cfg, data); err != nil {
			return cfg, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}
	if key := strings.TrimSpace(os.Getenv(config.APIKeyEnv)); key != "" {
		cfg.AI.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// writeConfig prints cfg with the API key masked.
func writeConfig(w io.Writer, cfg config.Config, output string) error {
	masked := cfg.Masked()
	switch output {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(masked); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		return enc.Close()
	case "json":
		data, err := json.MarshalIndent(masked, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return usageErrorf("invalid output for config: %s (use yaml|json)", output)
	}
}

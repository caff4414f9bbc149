package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Built-in defaults. The tool must run with zero configuration, so every
// field has a usable default and config files only override.
const (
	DefaultCommand       = "cargo check --message-format=json"
	DefaultTarget        = "conn"
	DefaultMaxIterations = 20
	DefaultTimeout       = "0s"
)

// DefaultRules is the built-in error-code-to-action table in config form.
func DefaultRules() map[string]string {
	return map[string]string{
		"E0308": "borrow",
		"E0596": "mut",
		"E0277": "borrow",
	}
}

// Default returns a Config populated entirely from built-in defaults.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads and parses a cargomend configuration from the given YAML file
// path, then fills unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the
// first one found. Search order: ./cargomend.yaml, ~/.cargomend/config.yaml.
// No file found is not an error — the built-in defaults apply.
func LoadDefault() (*Config, error) {
	candidates := []string{"cargomend.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".cargomend", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return Default(), nil
}

// applyDefaults fills every unset field so the rest of the program never has
// to distinguish "configured" from "defaulted".
func applyDefaults(cfg *Config) {
	m := &cfg.Mend

	if m.Command == "" {
		m.Command = DefaultCommand
	}
	if m.Target == "" {
		m.Target = DefaultTarget
	}
	if m.Timeout == "" {
		m.Timeout = DefaultTimeout
	}
	if len(m.Rules) == 0 {
		m.Rules = DefaultRules()
	}
}

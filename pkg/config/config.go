// Package config loads the tagverify profile file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/adammathes/tagverify/internal/logging"
	"github.com/adammathes/tagverify/pkg/document"
	"github.com/adammathes/tagverify/pkg/report"
)

// Config represents a validation profile.
type Config struct {
	// Standard forces the standard version ("UA-1", "UA-2"). Empty uses
	// the version declared by the document.
	Standard string `yaml:"standard"`
	// Strict refuses relation repairs.
	Strict bool `yaml:"strict"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Metrics dumps Prometheus counters to stderr after a run.
	Metrics bool `yaml:"metrics"`
	// Divergences are accepted in addition to the built-in ones.
	Divergences []report.KnownDivergence `yaml:"divergences,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "warn",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Standard != "" {
		if _, err := document.ParseVersion(c.Standard); err != nil {
			return fmt.Errorf("standard: %w", err)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	for i, d := range c.Divergences {
		if _, ok := report.Catalog[d.CheckID]; !ok {
			return fmt.Errorf("divergences[%d]: unknown check %q", i, d.CheckID)
		}
		if d.Side != report.InternalOnly && d.Side != report.ExternalOnly {
			return fmt.Errorf("divergences[%d]: side must be %q or %q", i, report.InternalOnly, report.ExternalOnly)
		}
	}
	return nil
}

// Version returns the forced standard version, if any.
func (c *Config) Version() (document.Version, bool) {
	if c.Standard == "" {
		return 0, false
	}
	v, err := document.ParseVersion(c.Standard)
	return v, err == nil
}

// KnownDivergences returns the built-in divergences followed by the
// configured ones.
func (c *Config) KnownDivergences() []report.KnownDivergence {
	out := make([]report.KnownDivergence, 0, len(report.KnownDivergences)+len(c.Divergences))
	out = append(out, report.KnownDivergences...)
	return append(out, c.Divergences...)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

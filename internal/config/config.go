// Package config loads the broker's JSON configuration document.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LocalSkillServiceConfig is the object consumed from key
// "aace.localSkillService" of the configuration document.
type LocalSkillServiceConfig struct {
	// LSSSocketPath is the filesystem path of the Unix-domain socket the
	// broker listens on. Required.
	LSSSocketPath string `json:"lssSocketPath"`

	// LMBSocketPath is a pass-through value, not consumed by the broker.
	LMBSocketPath string `json:"lmbSocketPath,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	LocalSkillService LocalSkillServiceConfig `json:"aace.localSkillService"`

	// LogLevel controls the slog handler level: "debug", "info", "warn", "error".
	LogLevel string `json:"logLevel,omitempty"`

	// MetricsAddr is the TCP address the admin HTTP server (healthz,
	// readyz, metrics) binds to. Empty disables the admin server.
	MetricsAddr string `json:"metricsAddr,omitempty"`
}

// Load reads and parses a configuration document from path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads and parses a configuration document from r.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required fields are present. A missing or empty
// lssSocketPath is a configuration error, returned by Parse and Load.
func (c *Config) Validate() error {
	if c.LocalSkillService.LSSSocketPath == "" {
		return fmt.Errorf("config: aace.localSkillService.lssSocketPath is required")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

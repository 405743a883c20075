// Package config handles configuration loading and validation for orchestraterm.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAddr is the TCP address the server binds and clients dial.
const DefaultAddr = "127.0.0.1:7899"

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig  `yaml:"server"`
	Journal    JournalConfig `yaml:"journal"`
	RuntimeDir string        `yaml:"-"` // set by caller, not from config file
}

// ServerConfig holds settings for the TCP server and its clients.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	PaneLogLines int           `yaml:"pane_log_lines"` // lines kept per pane
}

// JournalConfig controls the request journal.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Retention     time.Duration `yaml:"retention"`      // 0 keeps entries forever
	SweepInterval time.Duration `yaml:"sweep_interval"` // how often old entries are pruned
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			DialTimeout:  5 * time.Second,
			PaneLogLines: 500,
		},
		Journal: JournalConfig{
			Enabled:       true,
			Retention:     7 * 24 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
	}
}

// Load reads configuration from the given path and sets the runtime directory.
// If configPath is empty or doesn't exist, returns defaults with the provided runtimeDir.
func Load(configPath, runtimeDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.RuntimeDir = runtimeDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.DialTimeout == 0 {
		c.Server.DialTimeout = defaults.Server.DialTimeout
	}
	if c.Server.PaneLogLines == 0 {
		c.Server.PaneLogLines = defaults.Server.PaneLogLines
	}
	if c.Journal.SweepInterval == 0 {
		c.Journal.SweepInterval = defaults.Journal.SweepInterval
	}
}

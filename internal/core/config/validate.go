package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/orchestraterm/internal/core/validate"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("runtime_dir", c.RuntimeDir, validate.Required),
		criterio.Run("server.addr", c.Server.Addr, validate.Address),
		criterio.Run("server.dial_timeout", c.Server.DialTimeout, positiveDuration),
		criterio.Run("server.pane_log_lines", c.Server.PaneLogLines, atLeastOne),
		criterio.Run("journal.retention", c.Journal.Retention, nonNegativeDuration),
		criterio.Run("journal.sweep_interval", c.Journal.SweepInterval, positiveDuration),
	)
}

// ValidateDeep runs Validate and then checks file system state: the config
// file must be a regular file and the runtime directory must be a directory
// or not exist yet.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("runtime_dir", c.RuntimeDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}

func nonNegativeDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("must not be negative, got %s", d)
	}
	return nil
}

func atLeastOne(n int) error {
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

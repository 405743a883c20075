package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/client"
	"github.com/colonyops/orchestraterm/internal/core/config"
	"github.com/colonyops/orchestraterm/internal/protocol"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	RuntimeDir string
	Addr       string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "orchestraterm", "config.yaml")
}

// Client returns a client for the configured server address. The --addr
// flag wins over the config file.
func (f *Flags) Client() *client.Client {
	addr := f.Addr
	timeout := client.DefaultTimeout
	if f.Config != nil {
		if addr == "" {
			addr = f.Config.Server.Addr
		}
		timeout = f.Config.Server.DialTimeout
	}
	if addr == "" {
		addr = config.DefaultAddr
	}
	return client.New(addr, timeout)
}

// call sends req and turns an ok=false reply into an error.
func (f *Flags) call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	resp, err := f.Client().Call(ctx, req)
	if err != nil {
		return resp, err
	}
	if err := resp.AsError(); err != nil {
		return resp, err
	}
	return resp, nil
}

// printMessage writes the reply message on its own line.
func printMessage(c *cli.Command, resp protocol.Response) error {
	_, err := fmt.Fprintln(c.Root().Writer, resp.Message)
	return err
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/commands"
	"github.com/colonyops/orchestraterm/internal/core/config"
	"github.com/colonyops/orchestraterm/internal/store/jsonfile"
	"github.com/colonyops/orchestraterm/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// `go install module@version` leaves ldflags unset; fall back to the
	// module and VCS metadata the toolchain embeds.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "orchestraterm",
		Usage:     "Coordinate teams of AI agents around a terminal engine",
		UsageText: "orchestraterm [global options] command [command options]",
		Description: `orchestraterm runs a small server that owns terminal sessions and agent
teams. Members claim tasks that may depend on each other and declare the
files they touch; the server keeps two running tasks from ever sharing a
file and persists every change.

Run 'orchestraterm server start' to launch the server, then use the
'team', 'pane' and 'send' commands from any shell.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ORCHESTRATERM_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <runtime-dir>/orchestraterm.log)",
				Sources:     cli.EnvVars("ORCHESTRATERM_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ORCHESTRATERM_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "runtime-dir",
				Usage:       "directory for the state file, journal and logs (defaults to ./.orchestraterm-runtime)",
				Sources:     cli.EnvVars(jsonfile.EnvRuntimeDir),
				Destination: &flags.RuntimeDir,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "server address (defaults to server.addr from the config, 127.0.0.1:7899)",
				Sources:     cli.EnvVars("ORCHESTRATERM_SERVER_ADDR"),
				Destination: &flags.Addr,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			runtimeDir, err := jsonfile.ResolveRuntimeDir(flags.RuntimeDir)
			if err != nil {
				return ctx, fmt.Errorf("resolve runtime dir: %w", err)
			}
			flags.RuntimeDir = runtimeDir

			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(runtimeDir, "orchestraterm.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, runtimeDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewServerCmd(flags).Register(app)
	app = commands.NewTeamCmd(flags).Register(app)
	app = commands.NewPaneCmd(flags).Register(app)
	app = commands.NewSendCmd(flags).Register(app)
	app = commands.NewJournalCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

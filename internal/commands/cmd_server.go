package commands

import (
	"context"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/core/config"
	"github.com/colonyops/orchestraterm/internal/core/engine"
	"github.com/colonyops/orchestraterm/internal/core/journal"
	"github.com/colonyops/orchestraterm/internal/core/logging"
	"github.com/colonyops/orchestraterm/internal/data/stores"
	"github.com/colonyops/orchestraterm/internal/profiler"
	"github.com/colonyops/orchestraterm/internal/protocol"
	"github.com/colonyops/orchestraterm/internal/server"
	"github.com/colonyops/orchestraterm/internal/store/jsonfile"
	"github.com/colonyops/orchestraterm/internal/sweep"
)

type ServerCmd struct {
	flags *Flags

	// start flags
	noWatch   bool
	pprofPort int
	pprof     bool
}

// NewServerCmd creates a new server command.
func NewServerCmd(flags *Flags) *ServerCmd {
	return &ServerCmd{flags: flags}
}

// Register adds the server command to the application.
func (cmd *ServerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "server",
		Usage: "Run and query the orchestrator server",
		Description: `The server owns all sessions and teams and persists them to
<runtime-dir>/engine-state.json after every change.

Clients connect over TCP (default 127.0.0.1:7899, override with --addr or
ORCHESTRATERM_SERVER_ADDR) and exchange one JSON object per line.`,
		Commands: []*cli.Command{
			cmd.startCmd(),
			{
				Name:      "ping",
				Usage:     "Check that the server is reachable",
				UsageText: "orchestraterm server ping",
				Action:    cmd.runPing,
			},
			{
				Name:      "sessions",
				Usage:     "List session names",
				UsageText: "orchestraterm server sessions",
				Action:    cmd.runSessions,
			},
			{
				Name:      "create",
				Usage:     "Create a session and make it active",
				UsageText: "orchestraterm server create <name>",
				Action:    cmd.runCreate,
			},
			{
				Name:      "attach",
				Usage:     "Make an existing session active",
				UsageText: "orchestraterm server attach <name>",
				Action:    cmd.runAttach,
			},
		},
	})

	return app
}

func (cmd *ServerCmd) startCmd() *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Start the server in the foreground",
		UsageText: "orchestraterm server start [--no-watch] [--pprof]",
		Description: `Starts the server and blocks until interrupted.

State is loaded from <runtime-dir>/engine-state.json; a missing or corrupt
file starts from a fresh default. The config file is watched and reloaded on
change unless --no-watch is given.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "no-watch",
				Usage:       "do not reload the config file when it changes",
				Destination: &cmd.noWatch,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "serve runtime profiles over HTTP",
				Sources:     cli.EnvVars("ORCHESTRATERM_PPROF"),
				Destination: &cmd.pprof,
			},
			&cli.IntFlag{
				Name:        "pprof-port",
				Usage:       "port for the profiling endpoint",
				Value:       6060,
				Destination: &cmd.pprofPort,
			},
		},
		Action: cmd.runStart,
	}
}

func (cmd *ServerCmd) runStart(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cmd.flags.Addr != "" {
		cfg.Server.Addr = cmd.flags.Addr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvLog := logging.Component("server")

	stateStore := jsonfile.NewStateStore(jsonfile.StatePath(cfg.RuntimeDir), logging.Component("state"))
	state := stateStore.Open()
	state.PaneLogs().Resize(cfg.Server.PaneLogLines)

	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	var recorder journal.Recorder = journal.Nop{}
	if cfg.Journal.Enabled {
		database, err := stores.OpenJournal(cfg.RuntimeDir, logging.Component("journal"))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer func() { _ = database.Close() }()

		journalStore := stores.NewJournalStore(database)
		recorder = journalStore

		go sweep.Start(ctx, journalStore, cfg.Journal.SweepInterval, func() time.Duration {
			return current.Load().Journal.Retention
		})
	}

	srv := server.New(server.Options{Addr: cfg.Server.Addr}, engine.NewGuard(state), stateStore, recorder, srvLog)

	if !cmd.noWatch && cmd.flags.ConfigPath != "" {
		watcher, err := config.NewWatcher(cmd.flags.ConfigPath, cfg.RuntimeDir, logging.Component("config"), func(next *config.Config) {
			next.Server.Addr = cfg.Server.Addr
			current.Store(next)
			if err := srv.SetPaneLogLines(next.Server.PaneLogLines); err != nil {
				srvLog.Warn().Err(err).Msg("apply pane log size")
			}
		})
		if err != nil {
			srvLog.Warn().Err(err).Msg("config watcher disabled")
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	if cmd.pprof {
		prof := profiler.New(cmd.pprofPort)
		if err := prof.Start(ctx); err != nil {
			return err
		}
		defer shutdownProfiler(prof)
	}

	srvLog.Info().
		Str("state", stateStore.Path()).
		Bool("journal", cfg.Journal.Enabled).
		Msg("starting server")

	_, _ = fmt.Fprintf(c.Root().Writer, "listening on %s\n", cfg.Server.Addr)
	return srv.ListenAndServe(ctx)
}

func shutdownProfiler(prof *profiler.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := prof.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("profiler shutdown")
	}
}

func (cmd *ServerCmd) runPing(ctx context.Context, c *cli.Command) error {
	resp, err := cmd.flags.call(ctx, &protocol.Ping{})
	if err != nil {
		return err
	}
	return printMessage(c, resp)
}

func (cmd *ServerCmd) runSessions(ctx context.Context, c *cli.Command) error {
	resp, err := cmd.flags.call(ctx, &protocol.ListSessions{})
	if err != nil {
		return err
	}
	for _, name := range resp.Sessions {
		if _, err := fmt.Fprintln(c.Root().Writer, name); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *ServerCmd) runCreate(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	resp, err := cmd.flags.call(ctx, &protocol.CreateSession{Name: c.Args().Get(0)})
	if err != nil {
		return err
	}
	return printMessage(c, resp)
}

func (cmd *ServerCmd) runAttach(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	resp, err := cmd.flags.call(ctx, &protocol.AttachSession{Name: c.Args().Get(0)})
	if err != nil {
		return err
	}
	return printMessage(c, resp)
}

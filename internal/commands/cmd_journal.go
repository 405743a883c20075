package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/core/journal"
	"github.com/colonyops/orchestraterm/internal/core/logging"
	"github.com/colonyops/orchestraterm/internal/data/stores"
	"github.com/colonyops/orchestraterm/pkg/iojson"
)

type JournalCmd struct {
	flags *Flags

	// list flags
	team       string
	failedOnly bool
	limit      int
	json       bool

	// prune flags
	olderThan time.Duration
}

// NewJournalCmd creates a new journal command.
func NewJournalCmd(flags *Flags) *JournalCmd {
	return &JournalCmd{flags: flags}
}

// Register adds the journal command to the application.
func (cmd *JournalCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "journal",
		Usage: "Inspect the server's request journal",
		Description: `The server records every handled request (kind, team, outcome, duration)
in <runtime-dir>/journal.db. Entries older than journal.retention are pruned
in the background.`,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List recent requests, newest first",
				UsageText: "orchestraterm journal list [--team ID] [--failed] [--limit N] [--json]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "team",
						Usage:       "only requests for this team",
						Destination: &cmd.team,
					},
					&cli.BoolFlag{
						Name:        "failed",
						Usage:       "only requests answered with ok=false",
						Destination: &cmd.failedOnly,
					},
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "maximum entries",
						Value:       journal.DefaultLimit,
						Destination: &cmd.limit,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "print JSON instead of text",
						Destination: &cmd.json,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "prune",
				Usage:     "Delete entries older than a duration",
				UsageText: "orchestraterm journal prune --older-than 24h",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:        "older-than",
						Usage:       "age cutoff",
						Required:    true,
						Destination: &cmd.olderThan,
					},
				},
				Action: cmd.runPrune,
			},
		},
	})

	return app
}

func (cmd *JournalCmd) open() (*stores.JournalStore, func(), error) {
	database, err := stores.OpenJournal(cmd.flags.Config.RuntimeDir, logging.Component("journal"))
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	return stores.NewJournalStore(database), func() { _ = database.Close() }, nil
}

func (cmd *JournalCmd) runList(ctx context.Context, c *cli.Command) error {
	store, closeFn, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := store.List(ctx, journal.Filter{TeamID: cmd.team, FailedOnly: cmd.failedOnly, Limit: cmd.limit})
	if err != nil {
		return err
	}

	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, entries)
	}

	for _, e := range entries {
		status := "ok"
		if e.Failed() {
			status = "err"
		}
		_, err := fmt.Fprintf(c.Root().Writer, "%s %-3s %-26s team=%s %dms %s\n",
			e.CreatedAt.Format(time.RFC3339), status, e.Kind, orDash(e.TeamID), e.DurationMS, e.Message)
		if err != nil {
			return err
		}
	}
	return nil
}

func (cmd *JournalCmd) runPrune(ctx context.Context, c *cli.Command) error {
	if cmd.olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	store, closeFn, err := cmd.open()
	if err != nil {
		return err
	}
	defer closeFn()

	n, remaining, err := store.PruneAndCount(ctx, time.Now().Add(-cmd.olderThan))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.Root().Writer, "pruned %d entries, %d remaining\n", n, remaining)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

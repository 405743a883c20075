package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/core/session"
	"github.com/colonyops/orchestraterm/internal/protocol"
)

type PaneCmd struct {
	flags *Flags

	session string
	limit   int
}

// NewPaneCmd creates a new pane command.
func NewPaneCmd(flags *Flags) *PaneCmd {
	return &PaneCmd{flags: flags}
}

// Register adds the pane command to the application.
func (cmd *PaneCmd) Register(app *cli.Command) *cli.Command {
	sessionFlag := &cli.StringFlag{
		Name:        "session",
		Aliases:     []string{"s"},
		Usage:       "session that owns the pane",
		Value:       session.DefaultName,
		Destination: &cmd.session,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "pane",
		Usage: "Record and read pane output lines",
		Description: `Pane output is kept in memory by the server, newest lines last, up to
server.pane_log_lines per pane. It is not persisted.`,
		Commands: []*cli.Command{
			{
				Name:      "append",
				Usage:     "Append lines to a pane log",
				UsageText: "orchestraterm pane append <pane-id> [line...]  (reads stdin when no line is given)",
				Flags:     []cli.Flag{sessionFlag},
				Action:    cmd.runAppend,
			},
			{
				Name:      "tail",
				Usage:     "Print the newest lines of a pane log",
				UsageText: "orchestraterm pane tail <pane-id> [--limit N]",
				Flags: []cli.Flag{
					sessionFlag,
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "number of lines (0 for all)",
						Value:       20,
						Destination: &cmd.limit,
					},
				},
				Action: cmd.runTail,
			},
		},
	})

	return app
}

func (cmd *PaneCmd) runAppend(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	pane, err := intArg(c, 0, "pane id")
	if err != nil {
		return err
	}

	lines := c.Args().Slice()[1:]
	if len(lines) == 0 {
		lines, err = readLines(os.Stdin)
		if err != nil {
			return err
		}
	}

	for _, line := range lines {
		if _, err := cmd.flags.call(ctx, &protocol.PaneAppendLog{Session: cmd.session, PaneID: pane, Line: line}); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *PaneCmd) runTail(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	pane, err := intArg(c, 0, "pane id")
	if err != nil {
		return err
	}

	resp, err := cmd.flags.call(ctx, &protocol.PaneLog{Session: cmd.session, PaneID: pane, Limit: cmd.limit})
	if err != nil {
		return err
	}
	for _, line := range resp.Lines {
		if _, err := fmt.Fprintln(c.Root().Writer, line); err != nil {
			return err
		}
	}
	return nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}

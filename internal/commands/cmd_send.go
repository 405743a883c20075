package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/pkg/iojson"
)

type SendCmd struct {
	flags  *Flags
	reader iojson.FileReader[json.RawMessage]
}

// NewSendCmd creates a new send command.
func NewSendCmd(flags *Flags) *SendCmd {
	return &SendCmd{flags: flags}
}

// Register adds the send command to the application.
func (cmd *SendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Send a raw protocol request and print the raw response",
		UsageText: "orchestraterm send [-f request.json]",
		Description: `Sends one JSON request object, read from a file or piped stdin, and prints
the server's response as a single JSON line. Useful for scripting and for
requests that have no dedicated subcommand.

Examples:
  echo '{"type":"team_usage","team_id":"alpha"}' | orchestraterm send
  orchestraterm send -f claim.json`,
		Flags:  []cli.Flag{cmd.reader.Flag()},
		Action: cmd.run,
	})

	return app
}

func (cmd *SendCmd) run(ctx context.Context, c *cli.Command) error {
	raw, err := cmd.reader.Read()
	if err != nil {
		return err
	}

	// compact so the request fits on one line
	line, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := cmd.flags.Client().CallRaw(ctx, line)
	if err != nil {
		return err
	}

	if err := iojson.WriteLine(c.Root().Writer, resp); err != nil {
		return err
	}
	return resp.AsError()
}

package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/protocol"
)

// TeamIDCompleter returns a ShellCompleteFunc that suggests team ids from
// the running server as the first positional argument.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TeamIDCompleter(flags *Flags) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
			// only the team id is completed
			return
		}

		resp, err := flags.call(ctx, &protocol.TeamList{})
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range resp.Teams {
			_, _ = fmt.Fprintln(w, t.ID)
		}
	}
}

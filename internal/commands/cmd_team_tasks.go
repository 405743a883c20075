package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/core/engine"
	"github.com/colonyops/orchestraterm/internal/core/team"
	"github.com/colonyops/orchestraterm/internal/protocol"
	"github.com/colonyops/orchestraterm/pkg/iojson"
)

func (cmd *TeamCmd) tasksCmd() *cli.Command {
	return &cli.Command{
		Name:      "tasks",
		Usage:     "List a team's tasks",
		UsageText: "orchestraterm team tasks <team-id> [--touching GLOB] [--status S] [--json | --format TEMPLATE]",
		Description: `Lists tasks with their status, assignee, dependencies and touched files.

--touching keeps tasks with at least one touched file matching a glob
pattern; ** matches across directories.

Examples:
  orchestraterm team tasks alpha
  orchestraterm team tasks alpha --touching 'internal/**/*.go'
  orchestraterm team tasks alpha --status in_progress --json
  orchestraterm team tasks alpha --status pending --format '{{.ID}} {{.Title | shq}}'`,
		ShellComplete: TeamIDCompleter(cmd.flags),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "touching",
				Usage:       "only tasks touching a file that matches this glob",
				Destination: &cmd.touching,
			},
			&cli.StringFlag{
				Name:        "status",
				Usage:       "only tasks in this status (pending, blocked, in_progress, done)",
				Destination: &cmd.taskStat,
			},
			cmd.jsonFlag(),
			cmd.formatFlag(),
		},
		Action: cmd.runTasks,
	}
}

func (cmd *TeamCmd) runTasks(ctx context.Context, c *cli.Command) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	if cmd.touching != "" && !doublestar.ValidatePattern(cmd.touching) {
		return fmt.Errorf("invalid glob pattern: %q", cmd.touching)
	}

	resp, err := cmd.flags.call(ctx, &protocol.TeamList{})
	if err != nil {
		return err
	}

	teamID := c.Args().Get(0)
	var found *team.Team
	for _, t := range resp.Teams {
		if t.ID == teamID {
			found = t
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%w: %s", engine.ErrUnknownTeam, teamID)
	}

	tasks := filterTasks(found.Tasks, cmd.touching, team.TaskStatus(cmd.taskStat))
	if cmd.json {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, tasks)
	}
	if cmd.format != "" {
		return printTemplated(c.Root().Writer, cmd.format, tasks)
	}
	for _, task := range tasks {
		if err := printTaskLine(c.Root().Writer, task); err != nil {
			return err
		}
	}
	return nil
}

// filterTasks keeps tasks in status (when set) that touch a file matching
// pattern (when set). Paths are compared the way the engine compares them
// for conflicts: trimmed, lowercased and slash separated.
func filterTasks(tasks []team.Task, pattern string, status team.TaskStatus) []team.Task {
	pattern = strings.ToLower(strings.TrimSpace(pattern))

	out := []team.Task{}
	for _, task := range tasks {
		if status != "" && task.Status != status {
			continue
		}
		if pattern != "" && !touchesMatch(task.TouchedFiles, pattern) {
			continue
		}
		out = append(out, task)
	}
	return out
}

func touchesMatch(files []string, pattern string) bool {
	for _, f := range files {
		path := filepath.ToSlash(strings.ToLower(strings.TrimSpace(f)))
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func printTaskLine(w io.Writer, task team.Task) error {
	_, err := fmt.Fprintf(w, "#%d [%s] %s assignee=%s deps=%v files=%s\n",
		task.ID, task.Status, task.Title, memberRef(task.Assignee), task.Deps, strings.Join(task.TouchedFiles, ","))
	return err
}

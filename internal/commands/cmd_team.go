package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/orchestraterm/internal/core/team"
	"github.com/colonyops/orchestraterm/internal/protocol"
	"github.com/colonyops/orchestraterm/pkg/iojson"
	"github.com/colonyops/orchestraterm/pkg/tmpl"
)

type TeamCmd struct {
	flags *Flags

	// shared output flags
	json   bool
	format string

	// create / set-mode
	mode           string
	delegationOnly bool

	// add-member
	model               string
	requirePlanApproval bool
	lead                bool

	// add-task
	deps  []string
	files []string

	// done
	inputTokens  uint64
	outputTokens uint64
	costUSD      float64

	// plan / set-recovery
	status string
	policy string

	// remove-member
	reason string

	// message / messages
	fromMember int
	toMember   int
	priority   string
	viewer     int
	unreadOnly bool

	// tasks
	touching string
	taskStat string
}

// NewTeamCmd creates a new team command.
func NewTeamCmd(flags *Flags) *TeamCmd {
	return &TeamCmd{flags: flags}
}

// Register adds the team command to the application.
func (cmd *TeamCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "team",
		Usage: "Coordinate agent teams: members, tasks and messages",
		Description: `Team commands talk to a running server (see 'orchestraterm server start').

Members claim tasks, tasks may depend on other tasks and declare the files
they touch; two in-progress tasks never share a file. Messages form a team
inbox with direct and broadcast delivery.`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.tasksCmd(),
			cmd.createCmd(),
			cmd.addMemberCmd(),
			cmd.addTaskCmd(),
			cmd.submitPlanCmd(),
			cmd.claimCmd(),
			cmd.doneCmd(),
			cmd.planCmd(),
			cmd.autoClaimCmd(),
			cmd.releaseTaskCmd(),
			cmd.setModeCmd(),
			cmd.setDelegationCmd(),
			cmd.setRecoveryCmd(),
			cmd.removeMemberCmd(),
			cmd.restartMemberCmd(),
			cmd.cleanupCmd(),
			cmd.pruneTerminatedCmd(),
			cmd.messageCmd(),
			cmd.messagesCmd(),
			cmd.readMessageCmd(),
			cmd.usageCmd(),
		},
	})

	return app
}

func (cmd *TeamCmd) jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "print JSON instead of text",
		Destination: &cmd.json,
	}
}

func (cmd *TeamCmd) formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Usage:       "render each row with a Go template, e.g. '{{.ID}} {{.Title}}'",
		Destination: &cmd.format,
	}
}

// printTemplated renders every row with format, one per line.
func printTemplated[T any](w io.Writer, format string, rows []T) error {
	tpl, err := tmpl.Parse(format)
	if err != nil {
		return err
	}
	for _, row := range rows {
		out, err := tpl.Execute(row)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

// simple builds a subcommand that sends one request and prints the reply
// message.
func (cmd *TeamCmd) simple(name, usage, usageText string, nargs int, flags []cli.Flag, build func(c *cli.Command) (protocol.Request, error)) *cli.Command {
	return &cli.Command{
		Name:          name,
		Usage:         usage,
		UsageText:     usageText,
		Flags:         flags,
		ShellComplete: TeamIDCompleter(cmd.flags),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, nargs); err != nil {
				return err
			}
			req, err := build(c)
			if err != nil {
				return err
			}
			resp, err := cmd.flags.call(ctx, req)
			if err != nil {
				return err
			}
			return printMessage(c, resp)
		},
	}
}

func (cmd *TeamCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List teams",
		UsageText: "orchestraterm team list [--json | --format TEMPLATE]",
		Flags:     []cli.Flag{cmd.jsonFlag(), cmd.formatFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			resp, err := cmd.flags.call(ctx, &protocol.TeamList{})
			if err != nil {
				return err
			}
			if cmd.json {
				return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, resp.Teams)
			}
			if cmd.format != "" {
				return printTemplated(c.Root().Writer, cmd.format, resp.Teams)
			}
			for _, t := range resp.Teams {
				_, err := fmt.Fprintf(c.Root().Writer, "team=%s mode=%s delegation_only=%t members=%d tasks=%d\n",
					t.ID, t.Mode, t.DelegationOnly, len(t.Members), len(t.Tasks))
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (cmd *TeamCmd) createCmd() *cli.Command {
	return cmd.simple("create", "Create a team", "orchestraterm team create <team-id> [--mode in_process|split_pane|auto] [--delegation-only]", 1,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "display mode (in_process, split_pane, auto)",
				Value:       string(team.ModeInProcess),
				Destination: &cmd.mode,
			},
			&cli.BoolFlag{
				Name:        "delegation-only",
				Usage:       "lead members may not execute tasks",
				Destination: &cmd.delegationOnly,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			mode, err := team.ParseDisplayMode(cmd.mode)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamCreate{TeamID: c.Args().Get(0), Mode: mode, DelegationOnly: cmd.delegationOnly}, nil
		})
}

func (cmd *TeamCmd) addMemberCmd() *cli.Command {
	return cmd.simple("add-member", "Add a member to a team", "orchestraterm team add-member <team-id> <name> [--model M] [--require-plan-approval] [--lead]", 2,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "model",
				Usage:       "model the member runs",
				Value:       "gpt-5",
				Destination: &cmd.model,
			},
			&cli.BoolFlag{
				Name:        "require-plan-approval",
				Usage:       "member must have an approved plan before claiming tasks",
				Destination: &cmd.requirePlanApproval,
			},
			&cli.BoolFlag{
				Name:        "lead",
				Usage:       "member is a team lead",
				Destination: &cmd.lead,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			return &protocol.TeamAddMember{
				TeamID:              c.Args().Get(0),
				Name:                c.Args().Get(1),
				Model:               cmd.model,
				RequirePlanApproval: cmd.requirePlanApproval,
				IsLead:              cmd.lead,
			}, nil
		})
}

func (cmd *TeamCmd) addTaskCmd() *cli.Command {
	return cmd.simple("add-task", "Add a task to a team", "orchestraterm team add-task <team-id> <title> [--deps 0,1] [--files a.go,b.go]", 2,
		[]cli.Flag{
			&cli.StringSliceFlag{
				Name:        "deps",
				Usage:       "ids of tasks that must be done first (comma separated or repeated)",
				Destination: &cmd.deps,
			},
			&cli.StringSliceFlag{
				Name:        "files",
				Usage:       "files the task touches (comma separated or repeated)",
				Destination: &cmd.files,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			deps, err := splitIDs(cmd.deps, "dependency")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamAddTask{
				TeamID:       c.Args().Get(0),
				Title:        c.Args().Get(1),
				Deps:         deps,
				TouchedFiles: splitList(cmd.files),
			}, nil
		})
}

func (cmd *TeamCmd) submitPlanCmd() *cli.Command {
	return cmd.simple("submit-plan", "Submit a member's plan for approval", "orchestraterm team submit-plan <team-id> <member-id> <plan>", 3, nil,
		func(c *cli.Command) (protocol.Request, error) {
			member, err := intArg(c, 1, "member id")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamSubmitPlan{TeamID: c.Args().Get(0), MemberID: member, Plan: c.Args().Get(2)}, nil
		})
}

func (cmd *TeamCmd) claimCmd() *cli.Command {
	return cmd.simple("claim", "Claim a pending task", "orchestraterm team claim <team-id> <member-id> <task-id>", 3, nil,
		func(c *cli.Command) (protocol.Request, error) {
			member, task, err := memberAndTask(c)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamClaimTask{TeamID: c.Args().Get(0), MemberID: member, TaskID: task}, nil
		})
}

func (cmd *TeamCmd) doneCmd() *cli.Command {
	return cmd.simple("done", "Complete a claimed task and record usage", "orchestraterm team done <team-id> <member-id> <task-id> [--input-tokens N] [--output-tokens N] [--cost-usd X]", 3,
		[]cli.Flag{
			&cli.Uint64Flag{
				Name:        "input-tokens",
				Usage:       "input tokens spent on the task",
				Destination: &cmd.inputTokens,
			},
			&cli.Uint64Flag{
				Name:        "output-tokens",
				Usage:       "output tokens spent on the task",
				Destination: &cmd.outputTokens,
			},
			&cli.FloatFlag{
				Name:        "cost-usd",
				Usage:       "cost of the task in USD",
				Destination: &cmd.costUSD,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			member, task, err := memberAndTask(c)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamCompleteTask{
				TeamID:       c.Args().Get(0),
				MemberID:     member,
				TaskID:       task,
				InputTokens:  cmd.inputTokens,
				OutputTokens: cmd.outputTokens,
				CostUSD:      cmd.costUSD,
			}, nil
		})
}

func (cmd *TeamCmd) planCmd() *cli.Command {
	return cmd.simple("plan", "Approve or reject a member's plan", "orchestraterm team plan <team-id> <member-id> --status planning|approved|rejected", 2,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "status",
				Usage:       "plan status (planning, approved, rejected)",
				Required:    true,
				Destination: &cmd.status,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			member, err := intArg(c, 1, "member id")
			if err != nil {
				return nil, err
			}
			status, err := team.ParsePlanStatus(cmd.status)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamSetPlanStatus{TeamID: c.Args().Get(0), MemberID: member, Status: status}, nil
		})
}

func (cmd *TeamCmd) autoClaimCmd() *cli.Command {
	return cmd.simple("auto-claim", "Claim the next available task", "orchestraterm team auto-claim <team-id> <member-id>", 2, nil,
		func(c *cli.Command) (protocol.Request, error) {
			member, err := intArg(c, 1, "member id")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamAutoClaim{TeamID: c.Args().Get(0), MemberID: member}, nil
		})
}

func (cmd *TeamCmd) releaseTaskCmd() *cli.Command {
	return cmd.simple("release-task", "Release a task held by manual recovery", "orchestraterm team release-task <team-id> <task-id>", 2, nil,
		func(c *cli.Command) (protocol.Request, error) {
			task, err := intArg(c, 1, "task id")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamReleaseTask{TeamID: c.Args().Get(0), TaskID: task}, nil
		})
}

func (cmd *TeamCmd) setModeCmd() *cli.Command {
	return cmd.simple("set-mode", "Change a team's display mode", "orchestraterm team set-mode <team-id> --mode in_process|split_pane|auto", 1,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "display mode (in_process, split_pane, auto)",
				Required:    true,
				Destination: &cmd.mode,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			mode, err := team.ParseDisplayMode(cmd.mode)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamSetMode{TeamID: c.Args().Get(0), Mode: mode}, nil
		})
}

func (cmd *TeamCmd) setDelegationCmd() *cli.Command {
	return cmd.simple("set-delegation", "Toggle delegation-only mode", "orchestraterm team set-delegation <team-id> --delegation-only=true|false", 1,
		[]cli.Flag{
			&cli.BoolFlag{
				Name:        "delegation-only",
				Usage:       "lead members may not execute tasks",
				Destination: &cmd.delegationOnly,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			return &protocol.TeamSetDelegationOnly{TeamID: c.Args().Get(0), DelegationOnly: cmd.delegationOnly}, nil
		})
}

func (cmd *TeamCmd) setRecoveryCmd() *cli.Command {
	return cmd.simple("set-recovery", "Choose what happens to a removed member's tasks", "orchestraterm team set-recovery <team-id> --policy auto_reassign|manual", 1,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "policy",
				Usage:       "recovery policy (auto_reassign, manual)",
				Required:    true,
				Destination: &cmd.policy,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			policy, err := team.ParseRecoveryPolicy(cmd.policy)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamSetRecoveryPolicy{TeamID: c.Args().Get(0), RecoveryPolicy: policy}, nil
		})
}

func (cmd *TeamCmd) removeMemberCmd() *cli.Command {
	return cmd.simple("remove-member", "Terminate a member and recover its tasks", "orchestraterm team remove-member <team-id> <member-id> [--reason TEXT]", 2,
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "reason",
				Usage:       "why the member is terminated",
				Value:       "terminated by operator",
				Destination: &cmd.reason,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			member, err := intArg(c, 1, "member id")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamRemoveMember{TeamID: c.Args().Get(0), MemberID: member, Reason: cmd.reason}, nil
		})
}

func (cmd *TeamCmd) restartMemberCmd() *cli.Command {
	return cmd.simple("restart-member", "Reactivate a terminated member", "orchestraterm team restart-member <team-id> <member-id>", 2, nil,
		func(c *cli.Command) (protocol.Request, error) {
			member, err := intArg(c, 1, "member id")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamRestartMember{TeamID: c.Args().Get(0), MemberID: member}, nil
		})
}

func (cmd *TeamCmd) cleanupCmd() *cli.Command {
	return cmd.simple("cleanup", "Delete a team", "orchestraterm team cleanup <team-id>", 1, nil,
		func(c *cli.Command) (protocol.Request, error) {
			return &protocol.TeamCleanup{TeamID: c.Args().Get(0)}, nil
		})
}

func (cmd *TeamCmd) pruneTerminatedCmd() *cli.Command {
	return cmd.simple("prune-terminated", "Drop terminated members", "orchestraterm team prune-terminated <team-id>", 1, nil,
		func(c *cli.Command) (protocol.Request, error) {
			return &protocol.TeamPruneTerminated{TeamID: c.Args().Get(0)}, nil
		})
}

func (cmd *TeamCmd) messageCmd() *cli.Command {
	return cmd.simple("message", "Post a message to the team inbox", "orchestraterm team message <team-id> <text> [--from-member N] [--to-member N] [--priority P]", 2,
		[]cli.Flag{
			&cli.IntFlag{
				Name:        "from-member",
				Usage:       "sending member (omit for the operator)",
				Destination: &cmd.fromMember,
			},
			&cli.IntFlag{
				Name:        "to-member",
				Usage:       "recipient member (omit to broadcast)",
				Destination: &cmd.toMember,
			},
			&cli.StringFlag{
				Name:        "priority",
				Usage:       "priority (low, normal, high, urgent)",
				Value:       string(team.PriorityNormal),
				Destination: &cmd.priority,
			},
		},
		func(c *cli.Command) (protocol.Request, error) {
			from, err := optionalInt(c, "from-member", cmd.fromMember)
			if err != nil {
				return nil, err
			}
			to, err := optionalInt(c, "to-member", cmd.toMember)
			if err != nil {
				return nil, err
			}
			priority, err := team.ParsePriority(cmd.priority)
			if err != nil {
				return nil, err
			}
			return &protocol.TeamPostMessage{
				TeamID:     c.Args().Get(0),
				FromMember: from,
				ToMember:   to,
				Text:       strings.Join(c.Args().Slice()[1:], " "),
				Priority:   priority,
			}, nil
		})
}

func (cmd *TeamCmd) messagesCmd() *cli.Command {
	return &cli.Command{
		Name:          "messages",
		Usage:         "List the team inbox",
		UsageText:     "orchestraterm team messages <team-id> [--viewer-member N] [--unread-only] [--json | --format TEMPLATE]",
		ShellComplete: TeamIDCompleter(cmd.flags),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "viewer-member",
				Usage:       "show the inbox as this member sees it",
				Destination: &cmd.viewer,
			},
			&cli.BoolFlag{
				Name:        "unread-only",
				Usage:       "only messages the viewer has not read",
				Destination: &cmd.unreadOnly,
			},
			cmd.jsonFlag(),
			cmd.formatFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			viewer, err := optionalInt(c, "viewer-member", cmd.viewer)
			if err != nil {
				return err
			}
			resp, err := cmd.flags.call(ctx, &protocol.TeamListMessages{
				TeamID:       c.Args().Get(0),
				ViewerMember: viewer,
				UnreadOnly:   cmd.unreadOnly,
			})
			if err != nil {
				return err
			}
			if cmd.json {
				return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, resp.Messages)
			}
			if cmd.format != "" {
				return printTemplated(c.Root().Writer, cmd.format, resp.Messages)
			}
			for _, m := range resp.Messages {
				if err := printMessageLine(c.Root().Writer, m); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printMessageLine(w io.Writer, m team.Message) error {
	_, err := fmt.Fprintf(w, "#%d p=%s from=%s to=%s read_by=%v %s\n",
		m.ID, m.Priority, memberRef(m.FromMember), memberRef(m.ToMember), m.ReadBy, m.Text)
	return err
}

func memberRef(id *int) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}

func (cmd *TeamCmd) readMessageCmd() *cli.Command {
	return cmd.simple("read-message", "Mark a message as read by a member", "orchestraterm team read-message <team-id> <member-id> <message-id>", 3, nil,
		func(c *cli.Command) (protocol.Request, error) {
			member, err := intArg(c, 1, "member id")
			if err != nil {
				return nil, err
			}
			message, err := intArg(c, 2, "message id")
			if err != nil {
				return nil, err
			}
			return &protocol.TeamMarkMessageRead{TeamID: c.Args().Get(0), MemberID: member, MessageID: message}, nil
		})
}

func (cmd *TeamCmd) usageCmd() *cli.Command {
	return &cli.Command{
		Name:          "usage",
		Usage:         "Show token and cost totals",
		UsageText:     "orchestraterm team usage <team-id> [--json]",
		ShellComplete: TeamIDCompleter(cmd.flags),
		Flags:         []cli.Flag{cmd.jsonFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			resp, err := cmd.flags.call(ctx, &protocol.TeamUsage{TeamID: c.Args().Get(0)})
			if err != nil {
				return err
			}
			if resp.Usage == nil {
				return printMessage(c, resp)
			}
			if cmd.json {
				return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, resp.Usage)
			}
			u := resp.Usage
			_, err = fmt.Fprintf(c.Root().Writer, "input_tokens=%d output_tokens=%d cost_usd=%.6f active_tasks=%d\n",
				u.InputTokens, u.OutputTokens, u.CostUSD, u.ActiveTasks)
			return err
		},
	}
}

func memberAndTask(c *cli.Command) (member, task int, err error) {
	if member, err = intArg(c, 1, "member id"); err != nil {
		return 0, 0, err
	}
	if task, err = intArg(c, 2, "task id"); err != nil {
		return 0, 0, err
	}
	return member, task, nil
}

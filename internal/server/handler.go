package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/orchestraterm/internal/core/engine"
	"github.com/colonyops/orchestraterm/internal/core/journal"
	"github.com/colonyops/orchestraterm/internal/core/logging"
	"github.com/colonyops/orchestraterm/internal/protocol"
)

const unavailableMessage = "service unavailable: state lock poisoned"

// Handle executes one request against the shared state and returns the
// reply. Mutating requests are persisted before the guard is released so
// the state file never lags behind an acknowledged write.
func (s *Server) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	start := time.Now()
	teamID := protocol.TeamOf(req)
	if teamID != "" {
		ctx = logging.WithTeamID(ctx, teamID)
	}

	var resp protocol.Response
	err := s.guard.Do(func(st *engine.State) error {
		resp = dispatch(st, req)

		if protocol.Mutating(req) {
			if err := s.persister.Save(st); err != nil {
				s.log.Error().Ctx(ctx).Err(err).Str("kind", string(req.Kind())).Msg("persist state")
				resp.OK = false
				resp.Message = fmt.Sprintf("persist state: %v", err)
			}
		}

		resp.Sessions = st.ListSessions()
		if len(resp.Teams) == 0 {
			resp.Teams = st.ListTeams()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, engine.ErrPoisoned) {
			s.log.Error().Ctx(ctx).Err(err).Str("kind", string(req.Kind())).Msg("state unavailable")
			resp = protocol.Err(unavailableMessage)
		} else {
			resp = protocol.Err(err.Error())
		}
	}

	resp.Normalize()
	s.record(ctx, string(req.Kind()), teamID, resp, time.Since(start))
	return resp
}

func (s *Server) record(ctx context.Context, kind, teamID string, resp protocol.Response, elapsed time.Duration) {
	entry := journal.Entry{
		Kind:       kind,
		TeamID:     teamID,
		OK:         resp.OK,
		Message:    resp.Message,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("journal record failed")
	}
}

// dispatch maps a request onto the state. Domain failures become ok=false
// responses carrying the error text.
func dispatch(st *engine.State, req protocol.Request) protocol.Response {
	switch r := req.(type) {
	case *protocol.Ping:
		return protocol.OK("pong")

	case *protocol.ListSessions:
		resp := protocol.OK("ok")
		resp.Sessions = st.ListSessions()
		return resp

	case *protocol.CreateSession:
		st.CreateSession(r.Name)
		return protocol.OK("created session: " + r.Name)

	case *protocol.AttachSession:
		if err := st.AttachSession(r.Name); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("active session: " + r.Name)

	case *protocol.TeamList:
		resp := protocol.OK("ok")
		resp.Teams = st.ListTeams()
		return resp

	case *protocol.TeamCreate:
		if err := st.CreateTeam(r.TeamID, r.Mode, r.DelegationOnly); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("created team: " + r.TeamID)

	case *protocol.TeamAddMember:
		m, err := st.AddMember(r.TeamID, r.Name, r.Model, r.RequirePlanApproval, r.IsLead)
		if err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK(fmt.Sprintf("member added: %s (id=%d)", m.Name, m.ID))

	case *protocol.TeamAddTask:
		task, err := st.AddTask(r.TeamID, r.Title, r.Deps, r.TouchedFiles)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK(fmt.Sprintf("task added: %s (id=%d)", task.Title, task.ID))
		resp.Tasks = append(resp.Tasks, task)
		return resp

	case *protocol.TeamSubmitPlan:
		if err := st.SubmitPlan(r.TeamID, r.MemberID, r.Plan); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK(fmt.Sprintf("plan submitted for member: %d", r.MemberID))

	case *protocol.TeamSetPlanStatus:
		if err := st.SetPlanStatus(r.TeamID, r.MemberID, r.Status); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK(fmt.Sprintf("member plan status updated: %d", r.MemberID))

	case *protocol.TeamClaimTask:
		task, err := st.ClaimTask(r.TeamID, r.MemberID, r.TaskID)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK(fmt.Sprintf("task claimed: %d", task.ID))
		resp.Tasks = append(resp.Tasks, task)
		return resp

	case *protocol.TeamAutoClaim:
		task, ok, err := st.AutoClaimNextTask(r.TeamID, r.MemberID)
		if err != nil {
			return protocol.Err(err.Error())
		}
		if !ok {
			return protocol.OK("no claimable task")
		}
		resp := protocol.OK(fmt.Sprintf("auto-claimed task: %d", task.ID))
		resp.Tasks = append(resp.Tasks, task)
		return resp

	case *protocol.TeamCompleteTask:
		err := st.CompleteTask(r.TeamID, r.MemberID, r.TaskID, r.InputTokens, r.OutputTokens, r.CostUSD)
		if err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK(fmt.Sprintf("task completed: %d", r.TaskID))

	case *protocol.TeamReleaseTask:
		task, err := st.ReleaseTask(r.TeamID, r.TaskID)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK(fmt.Sprintf("task released: %d", task.ID))
		resp.Tasks = append(resp.Tasks, task)
		return resp

	case *protocol.TeamSetMode:
		if err := st.SetTeamMode(r.TeamID, r.Mode); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("team mode updated")

	case *protocol.TeamSetDelegationOnly:
		if err := st.SetDelegationOnly(r.TeamID, r.DelegationOnly); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("delegation mode updated")

	case *protocol.TeamSetRecoveryPolicy:
		if err := st.SetRecoveryPolicy(r.TeamID, r.RecoveryPolicy); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("recovery policy updated")

	case *protocol.TeamRemoveMember:
		if err := st.RemoveMember(r.TeamID, r.MemberID, r.Reason); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK(fmt.Sprintf("member terminated: %d", r.MemberID))

	case *protocol.TeamRestartMember:
		if err := st.RestartMember(r.TeamID, r.MemberID); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK(fmt.Sprintf("member restarted: %d", r.MemberID))

	case *protocol.TeamPruneTerminated:
		if err := st.PruneTerminated(r.TeamID); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("terminated members pruned")

	case *protocol.TeamCleanup:
		if err := st.CleanupTeam(r.TeamID); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("team removed: " + r.TeamID)

	case *protocol.TeamPostMessage:
		msg, err := st.PostMessage(r.TeamID, r.FromMember, r.ToMember, r.Text, r.Priority)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK(fmt.Sprintf("message posted: %d", msg.ID))
		resp.Messages = append(resp.Messages, msg)
		return resp

	case *protocol.TeamListMessages:
		msgs, err := st.Messages(r.TeamID, r.ViewerMember, r.UnreadOnly)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK("ok")
		resp.Messages = msgs
		return resp

	case *protocol.TeamMarkMessageRead:
		if err := st.MarkMessageRead(r.TeamID, r.MemberID, r.MessageID); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("message marked as read")

	case *protocol.TeamUsage:
		usage, err := st.Usage(r.TeamID)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK("ok")
		resp.Usage = &usage
		return resp

	case *protocol.PaneAppendLog:
		if err := st.AppendPaneLog(r.Session, r.PaneID, r.Line); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.OK("ok")

	case *protocol.PaneLog:
		lines, err := st.PaneLog(r.Session, r.PaneID, r.Limit)
		if err != nil {
			return protocol.Err(err.Error())
		}
		resp := protocol.OK("ok")
		resp.Lines = lines
		return resp
	}

	return protocol.Err(fmt.Sprintf("unsupported request: %s", req.Kind()))
}

package engine

import "github.com/colonyops/orchestraterm/internal/core/team"

// Team-scoped operations. Each resolves the team first and fails with
// ErrUnknownTeam for ids that are not registered.

func (s *State) SetTeamMode(teamID string, mode team.DisplayMode) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	t.Mode = mode
	return nil
}

func (s *State) SetDelegationOnly(teamID string, delegationOnly bool) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	t.DelegationOnly = delegationOnly
	return nil
}

func (s *State) SetRecoveryPolicy(teamID string, policy team.RecoveryPolicy) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	t.RecoveryPolicy = policy
	return nil
}

func (s *State) AddMember(teamID, name, model string, requirePlanApproval, isLead bool) (team.Member, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Member{}, err
	}
	return t.AddMember(name, model, requirePlanApproval, isLead), nil
}

func (s *State) AddTask(teamID, title string, deps []int, touchedFiles []string) (team.Task, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Task{}, err
	}
	return t.AddTask(title, deps, touchedFiles, s.clock())
}

func (s *State) SubmitPlan(teamID string, memberID int, plan string) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	return t.SubmitPlan(memberID, plan, s.clock())
}

func (s *State) SetPlanStatus(teamID string, memberID int, status team.PlanStatus) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	return t.SetPlanStatus(memberID, status, s.clock())
}

func (s *State) ClaimTask(teamID string, memberID, taskID int) (team.Task, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Task{}, err
	}
	return t.ClaimTask(memberID, taskID, s.clock())
}

// AutoClaimNextTask returns ok=false when no task is claimable.
func (s *State) AutoClaimNextTask(teamID string, memberID int) (team.Task, bool, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Task{}, false, err
	}
	return t.AutoClaimNextTask(memberID, s.clock())
}

func (s *State) CompleteTask(teamID string, memberID, taskID int, inputTokens, outputTokens uint64, costUSD float64) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	return t.CompleteTask(memberID, taskID, inputTokens, outputTokens, costUSD, s.clock())
}

func (s *State) ReleaseTask(teamID string, taskID int) (team.Task, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Task{}, err
	}
	return t.ReleaseTask(taskID, s.clock())
}

func (s *State) RemoveMember(teamID string, memberID int, reason string) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	return t.RemoveMember(memberID, reason, s.clock())
}

func (s *State) RestartMember(teamID string, memberID int) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	return t.RestartMember(memberID)
}

func (s *State) PruneTerminated(teamID string) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	t.PruneTerminated()
	return nil
}

func (s *State) PostMessage(teamID string, from, to *int, text string, priority team.Priority) (team.Message, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Message{}, err
	}
	return t.PostMessage(from, to, text, priority, s.clock())
}

func (s *State) Messages(teamID string, viewer *int, unreadOnly bool) ([]team.Message, error) {
	t, err := s.team(teamID)
	if err != nil {
		return nil, err
	}
	return t.Inbox(viewer, unreadOnly)
}

func (s *State) MarkMessageRead(teamID string, memberID, messageID int) error {
	t, err := s.team(teamID)
	if err != nil {
		return err
	}
	return t.MarkMessageRead(memberID, messageID)
}

func (s *State) Usage(teamID string) (team.Usage, error) {
	t, err := s.team(teamID)
	if err != nil {
		return team.Usage{}, err
	}
	return t.Usage(), nil
}

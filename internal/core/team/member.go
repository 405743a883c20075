package team

import (
	"fmt"
	"time"
)

// MemberStatus is the lifecycle state of a member.
type MemberStatus string

const (
	MemberActive     MemberStatus = "active"
	MemberTerminated MemberStatus = "terminated"
)

func (s *MemberStatus) UnmarshalText(b []byte) error {
	switch v := MemberStatus(b); v {
	case MemberActive, MemberTerminated:
		*s = v
		return nil
	}
	return fmt.Errorf("invalid member status: %q", string(b))
}

// PlanStatus is the state of a member's plan-approval gate.
type PlanStatus string

const (
	PlanPlanning PlanStatus = "planning"
	PlanApproved PlanStatus = "approved"
	PlanRejected PlanStatus = "rejected"
)

// ParsePlanStatus converts a string into a PlanStatus.
func ParsePlanStatus(s string) (PlanStatus, error) {
	switch p := PlanStatus(s); p {
	case PlanPlanning, PlanApproved, PlanRejected:
		return p, nil
	}
	return "", fmt.Errorf("invalid plan status: %q", s)
}

func (p *PlanStatus) UnmarshalText(b []byte) error {
	v, err := ParsePlanStatus(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Member is an addressable worker that can claim and complete tasks.
type Member struct {
	ID                  int          `json:"id"`
	Name                string       `json:"name"`
	Model               string       `json:"model"`
	IsLead              bool         `json:"is_lead"`
	Status              MemberStatus `json:"status"`
	TerminatedAt        *int64       `json:"terminated_at"`
	TerminationReason   *string      `json:"termination_reason"`
	RequirePlanApproval bool         `json:"require_plan_approval"`
	PlanStatus          PlanStatus   `json:"plan_status"`
	LatestPlan          *string      `json:"latest_plan"`
	PlanUpdatedAt       *int64       `json:"plan_updated_at"`
	InputTokens         uint64       `json:"input_tokens"`
	OutputTokens        uint64       `json:"output_tokens"`
	CostUSD             float64      `json:"cost_usd"`
}

// IsActive reports whether the member may act.
func (m *Member) IsActive() bool {
	return m.Status == MemberActive
}

func (m *Member) ensureActive() error {
	if !m.IsActive() {
		return fmt.Errorf("%w: %d", ErrMemberInactive, m.ID)
	}
	return nil
}

func (m *Member) normalize() {
	if m.Status == "" {
		m.Status = MemberActive
	}
	if m.PlanStatus == "" {
		m.PlanStatus = PlanPlanning
	}
}

// Pointer fields are replaced, never written through, so sharing them is safe.
func (m Member) clone() Member {
	return m
}

// AddMember appends a new active member. Members that do not require plan
// approval start approved.
func (t *Team) AddMember(name, model string, requirePlanApproval, isLead bool) Member {
	plan := PlanApproved
	if requirePlanApproval {
		plan = PlanPlanning
	}

	m := Member{
		ID:                  t.NextMemberID,
		Name:                name,
		Model:               model,
		IsLead:              isLead,
		Status:              MemberActive,
		RequirePlanApproval: requirePlanApproval,
		PlanStatus:          plan,
	}
	t.NextMemberID++
	t.Members = append(t.Members, m)
	return m
}

// SubmitPlan records a new plan for review and puts the member back into
// the planning state.
func (t *Team) SubmitPlan(memberID int, plan string, now time.Time) error {
	m, err := t.member(memberID)
	if err != nil {
		return err
	}
	if err := m.ensureActive(); err != nil {
		return err
	}

	m.LatestPlan = ptr(plan)
	m.PlanUpdatedAt = ptr(unix(now))
	m.PlanStatus = PlanPlanning
	return nil
}

// SetPlanStatus approves or rejects a member's plan.
func (t *Team) SetPlanStatus(memberID int, status PlanStatus, now time.Time) error {
	m, err := t.member(memberID)
	if err != nil {
		return err
	}
	if err := m.ensureActive(); err != nil {
		return err
	}

	m.PlanStatus = status
	m.PlanUpdatedAt = ptr(unix(now))
	return nil
}

// RemoveMember terminates a member and recovers its open tasks according
// to the team's recovery policy. Done tasks keep their assignee.
func (t *Team) RemoveMember(memberID int, reason string, now time.Time) error {
	m, err := t.member(memberID)
	if err != nil {
		return err
	}
	if err := t.checkDependencies(); err != nil {
		return err
	}

	ts := unix(now)
	m.Status = MemberTerminated
	m.TerminatedAt = ptr(ts)
	m.TerminationReason = ptr(reason)

	for i := range t.Tasks {
		task := &t.Tasks[i]
		if task.Assignee == nil || *task.Assignee != memberID || task.Status == TaskDone {
			continue
		}

		task.Assignee = nil
		task.UpdatedAt = ts
		switch t.RecoveryPolicy {
		case RecoveryManual:
			task.Status = TaskBlocked
			task.RecoveryHold = true
		default:
			task.Status = TaskPending
			task.RecoveryHold = false
		}
	}

	return t.RefreshBlocking(now)
}

// RestartMember reactivates a terminated member. Usage, plan state and
// task assignments are left as they are.
func (t *Team) RestartMember(memberID int) error {
	m, err := t.member(memberID)
	if err != nil {
		return err
	}

	m.Status = MemberActive
	m.TerminatedAt = nil
	m.TerminationReason = nil
	return nil
}

// PruneTerminated permanently deletes terminated members and strips their
// ids from every message's read set. Tasks are untouched.
func (t *Team) PruneTerminated() {
	active := make(map[int]struct{}, len(t.Members))
	kept := make([]Member, 0, len(t.Members))
	for _, m := range t.Members {
		if m.IsActive() {
			active[m.ID] = struct{}{}
			kept = append(kept, m)
		}
	}
	t.Members = kept

	for i := range t.Messages {
		msg := &t.Messages[i]
		readBy := make([]int, 0, len(msg.ReadBy))
		for _, id := range msg.ReadBy {
			if _, ok := active[id]; ok {
				readBy = append(readBy, id)
			}
		}
		msg.ReadBy = readBy
	}
}

// Package team defines the agent team domain model: members claim and
// complete interdependent tasks and coordinate through a team inbox.
//
// A Team owns its members, tasks and messages. Ids are allocated from
// counters on the Team and are never reused, even after members are pruned.
// Every operation validates its preconditions before touching state, so a
// returned error means the team is unchanged.
package team

import (
	"fmt"
	"slices"
	"time"
)

// DisplayMode is a presentation hint for front-ends. The engine never
// interprets it.
type DisplayMode string

const (
	ModeInProcess DisplayMode = "in_process"
	ModeSplitPane DisplayMode = "split_pane"
	ModeAuto      DisplayMode = "auto"
)

// ParseDisplayMode converts a string into a DisplayMode.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(s); m {
	case ModeInProcess, ModeSplitPane, ModeAuto:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode: %q", s)
}

func (m *DisplayMode) UnmarshalText(b []byte) error {
	v, err := ParseDisplayMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// RecoveryPolicy decides what happens to the open tasks of a removed member.
type RecoveryPolicy string

const (
	// RecoveryAutoReassign returns open tasks to pending so anyone can claim them.
	RecoveryAutoReassign RecoveryPolicy = "auto_reassign"
	// RecoveryManual parks open tasks as blocked until an operator releases them.
	RecoveryManual RecoveryPolicy = "manual"
)

// ParseRecoveryPolicy converts a string into a RecoveryPolicy.
func ParseRecoveryPolicy(s string) (RecoveryPolicy, error) {
	switch p := RecoveryPolicy(s); p {
	case RecoveryAutoReassign, RecoveryManual:
		return p, nil
	}
	return "", fmt.Errorf("invalid recovery policy: %q", s)
}

func (p *RecoveryPolicy) UnmarshalText(b []byte) error {
	v, err := ParseRecoveryPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Team is an isolated namespace of members, tasks and messages.
type Team struct {
	ID             string         `json:"id"`
	Mode           DisplayMode    `json:"mode"`
	DelegationOnly bool           `json:"delegation_only"`
	RecoveryPolicy RecoveryPolicy `json:"recovery_policy"`
	Members        []Member       `json:"members"`
	Tasks          []Task         `json:"tasks"`
	Messages       []Message      `json:"messages"`
	NextMemberID   int            `json:"next_member_id"`
	NextTaskID     int            `json:"next_task_id"`
	NextMessageID  int            `json:"next_message_id"`
}

// New creates an empty team with the auto-reassign recovery policy.
func New(id string, mode DisplayMode, delegationOnly bool) *Team {
	return &Team{
		ID:             id,
		Mode:           mode,
		DelegationOnly: delegationOnly,
		RecoveryPolicy: RecoveryAutoReassign,
		Members:        []Member{},
		Tasks:          []Task{},
		Messages:       []Message{},
	}
}

// Normalize fills defaults for fields that older state files may omit.
func (t *Team) Normalize() {
	if t.Mode == "" {
		t.Mode = ModeInProcess
	}
	if t.RecoveryPolicy == "" {
		t.RecoveryPolicy = RecoveryAutoReassign
	}
	if t.Members == nil {
		t.Members = []Member{}
	}
	if t.Tasks == nil {
		t.Tasks = []Task{}
	}
	if t.Messages == nil {
		t.Messages = []Message{}
	}
	for i := range t.Members {
		t.Members[i].normalize()
	}
	for i := range t.Tasks {
		t.Tasks[i].normalize()
	}
	for i := range t.Messages {
		t.Messages[i].normalize()
	}
}

// Clone returns a deep copy that shares no mutable state with t.
func (t *Team) Clone() *Team {
	c := *t
	c.Members = make([]Member, len(t.Members))
	for i, m := range t.Members {
		c.Members[i] = m.clone()
	}
	c.Tasks = make([]Task, len(t.Tasks))
	for i, task := range t.Tasks {
		c.Tasks[i] = task.clone()
	}
	c.Messages = make([]Message, len(t.Messages))
	for i, m := range t.Messages {
		c.Messages[i] = m.clone()
	}
	return &c
}

// Usage sums token and cost counters across all tasks and counts the
// tasks currently in progress.
func (t *Team) Usage() Usage {
	var u Usage
	for _, task := range t.Tasks {
		u.InputTokens += task.InputTokens
		u.OutputTokens += task.OutputTokens
		u.CostUSD += task.CostUSD
		if task.Status == TaskInProgress {
			u.ActiveTasks++
		}
	}
	return u
}

// Usage is the aggregate token and cost accounting for a team.
type Usage struct {
	InputTokens  uint64  `json:"input_tokens"`
	OutputTokens uint64  `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	ActiveTasks  uint64  `json:"active_tasks"`
}

func (t *Team) member(id int) (*Member, error) {
	for i := range t.Members {
		if t.Members[i].ID == id {
			return &t.Members[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMember, id)
}

func (t *Team) taskIndex(id int) (int, error) {
	for i := range t.Tasks {
		if t.Tasks[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrUnknownTask, id)
}

func (t *Team) message(id int) (*Message, error) {
	for i := range t.Messages {
		if t.Messages[i].ID == id {
			return &t.Messages[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, id)
}

// executionGates applies the member-level admission rules shared by claim
// and auto-claim.
func (t *Team) executionGates(m *Member) error {
	if err := m.ensureActive(); err != nil {
		return err
	}
	if t.DelegationOnly && m.IsLead {
		return ErrDelegationOnly
	}
	if m.RequirePlanApproval && m.PlanStatus != PlanApproved {
		return fmt.Errorf("%w for member %d", ErrPlanApprovalRequired, m.ID)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

func unix(now time.Time) int64 {
	return now.Unix()
}

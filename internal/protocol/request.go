// Package protocol defines the newline-delimited JSON wire format spoken
// between clients and the orchestrator server. Each request is one JSON
// object tagged by a "type" field; each response is one Response object.
package protocol

import (
	"github.com/hay-kot/criterio"

	"github.com/colonyops/orchestraterm/internal/core/team"
	"github.com/colonyops/orchestraterm/internal/core/validate"
)

// Kind is the "type" tag of a request.
type Kind string

const (
	KindPing                  Kind = "ping"
	KindListSessions          Kind = "list_sessions"
	KindCreateSession         Kind = "create_session"
	KindAttachSession         Kind = "attach_session"
	KindTeamList              Kind = "team_list"
	KindTeamCreate            Kind = "team_create"
	KindTeamAddMember         Kind = "team_add_member"
	KindTeamAddTask           Kind = "team_add_task"
	KindTeamSubmitPlan        Kind = "team_submit_plan"
	KindTeamClaimTask         Kind = "team_claim_task"
	KindTeamCompleteTask      Kind = "team_complete_task"
	KindTeamSetPlanStatus     Kind = "team_set_plan_status"
	KindTeamAutoClaim         Kind = "team_auto_claim"
	KindTeamReleaseTask       Kind = "team_release_task"
	KindTeamSetMode           Kind = "team_set_mode"
	KindTeamSetDelegationOnly Kind = "team_set_delegation_only"
	KindTeamSetRecoveryPolicy Kind = "team_set_recovery_policy"
	KindTeamRemoveMember      Kind = "team_remove_member"
	KindTeamRestartMember     Kind = "team_restart_member"
	KindTeamCleanup           Kind = "team_cleanup"
	KindTeamPruneTerminated   Kind = "team_prune_terminated"
	KindTeamPostMessage       Kind = "team_post_message"
	KindTeamListMessages      Kind = "team_list_messages"
	KindTeamMarkMessageRead   Kind = "team_mark_message_read"
	KindTeamUsage             Kind = "team_usage"
	KindPaneAppendLog         Kind = "pane_append_log"
	KindPaneLog               Kind = "pane_log"
)

// Request is implemented by every request variant.
type Request interface {
	Kind() Kind
}

// TeamScoped is implemented by requests that target a single team.
type TeamScoped interface {
	Request
	Team() string
}

func teamField(id string) error {
	return validate.RequiredField("team_id", id)
}

type (
	Ping         struct{}
	ListSessions struct{}
	TeamList     struct{}

	CreateSession struct {
		Name string `json:"name"`
	}

	AttachSession struct {
		Name string `json:"name"`
	}

	TeamCreate struct {
		TeamID         string           `json:"team_id"`
		Mode           team.DisplayMode `json:"mode"`
		DelegationOnly bool             `json:"delegation_only"`
	}

	TeamAddMember struct {
		TeamID              string `json:"team_id"`
		Name                string `json:"name"`
		Model               string `json:"model"`
		RequirePlanApproval bool   `json:"require_plan_approval"`
		IsLead              bool   `json:"is_lead"`
	}

	TeamAddTask struct {
		TeamID       string   `json:"team_id"`
		Title        string   `json:"title"`
		Deps         []int    `json:"deps"`
		TouchedFiles []string `json:"touched_files"`
	}

	TeamSubmitPlan struct {
		TeamID   string `json:"team_id"`
		MemberID int    `json:"member_id"`
		Plan     string `json:"plan"`
	}

	TeamClaimTask struct {
		TeamID   string `json:"team_id"`
		MemberID int    `json:"member_id"`
		TaskID   int    `json:"task_id"`
	}

	TeamCompleteTask struct {
		TeamID       string  `json:"team_id"`
		MemberID     int     `json:"member_id"`
		TaskID       int     `json:"task_id"`
		InputTokens  uint64  `json:"input_tokens"`
		OutputTokens uint64  `json:"output_tokens"`
		CostUSD      float64 `json:"cost_usd"`
	}

	TeamSetPlanStatus struct {
		TeamID   string          `json:"team_id"`
		MemberID int             `json:"member_id"`
		Status   team.PlanStatus `json:"status"`
	}

	TeamAutoClaim struct {
		TeamID   string `json:"team_id"`
		MemberID int    `json:"member_id"`
	}

	TeamReleaseTask struct {
		TeamID string `json:"team_id"`
		TaskID int    `json:"task_id"`
	}

	TeamSetMode struct {
		TeamID string           `json:"team_id"`
		Mode   team.DisplayMode `json:"mode"`
	}

	TeamSetDelegationOnly struct {
		TeamID         string `json:"team_id"`
		DelegationOnly bool   `json:"delegation_only"`
	}

	TeamSetRecoveryPolicy struct {
		TeamID         string              `json:"team_id"`
		RecoveryPolicy team.RecoveryPolicy `json:"recovery_policy"`
	}

	TeamRemoveMember struct {
		TeamID   string `json:"team_id"`
		MemberID int    `json:"member_id"`
		Reason   string `json:"reason"`
	}

	TeamRestartMember struct {
		TeamID   string `json:"team_id"`
		MemberID int    `json:"member_id"`
	}

	TeamCleanup struct {
		TeamID string `json:"team_id"`
	}

	TeamPruneTerminated struct {
		TeamID string `json:"team_id"`
	}

	TeamPostMessage struct {
		TeamID     string        `json:"team_id"`
		FromMember *int          `json:"from_member"`
		ToMember   *int          `json:"to_member"`
		Text       string        `json:"text"`
		Priority   team.Priority `json:"priority"`
	}

	TeamListMessages struct {
		TeamID       string `json:"team_id"`
		ViewerMember *int   `json:"viewer_member"`
		UnreadOnly   bool   `json:"unread_only"`
	}

	TeamMarkMessageRead struct {
		TeamID    string `json:"team_id"`
		MemberID  int    `json:"member_id"`
		MessageID int    `json:"message_id"`
	}

	TeamUsage struct {
		TeamID string `json:"team_id"`
	}

	PaneAppendLog struct {
		Session string `json:"session"`
		PaneID  int    `json:"pane_id"`
		Line    string `json:"line"`
	}

	PaneLog struct {
		Session string `json:"session"`
		PaneID  int    `json:"pane_id"`
		Limit   int    `json:"limit"`
	}
)

func (*Ping) Kind() Kind                  { return KindPing }
func (*ListSessions) Kind() Kind          { return KindListSessions }
func (*TeamList) Kind() Kind              { return KindTeamList }
func (*CreateSession) Kind() Kind         { return KindCreateSession }
func (*AttachSession) Kind() Kind         { return KindAttachSession }
func (*TeamCreate) Kind() Kind            { return KindTeamCreate }
func (*TeamAddMember) Kind() Kind         { return KindTeamAddMember }
func (*TeamAddTask) Kind() Kind           { return KindTeamAddTask }
func (*TeamSubmitPlan) Kind() Kind        { return KindTeamSubmitPlan }
func (*TeamClaimTask) Kind() Kind         { return KindTeamClaimTask }
func (*TeamCompleteTask) Kind() Kind      { return KindTeamCompleteTask }
func (*TeamSetPlanStatus) Kind() Kind     { return KindTeamSetPlanStatus }
func (*TeamAutoClaim) Kind() Kind         { return KindTeamAutoClaim }
func (*TeamReleaseTask) Kind() Kind       { return KindTeamReleaseTask }
func (*TeamSetMode) Kind() Kind           { return KindTeamSetMode }
func (*TeamSetDelegationOnly) Kind() Kind { return KindTeamSetDelegationOnly }
func (*TeamSetRecoveryPolicy) Kind() Kind { return KindTeamSetRecoveryPolicy }
func (*TeamRemoveMember) Kind() Kind      { return KindTeamRemoveMember }
func (*TeamRestartMember) Kind() Kind     { return KindTeamRestartMember }
func (*TeamCleanup) Kind() Kind           { return KindTeamCleanup }
func (*TeamPruneTerminated) Kind() Kind   { return KindTeamPruneTerminated }
func (*TeamPostMessage) Kind() Kind       { return KindTeamPostMessage }
func (*TeamListMessages) Kind() Kind      { return KindTeamListMessages }
func (*TeamMarkMessageRead) Kind() Kind   { return KindTeamMarkMessageRead }
func (*TeamUsage) Kind() Kind             { return KindTeamUsage }
func (*PaneAppendLog) Kind() Kind         { return KindPaneAppendLog }
func (*PaneLog) Kind() Kind               { return KindPaneLog }

func (r *TeamCreate) Team() string            { return r.TeamID }
func (r *TeamAddMember) Team() string         { return r.TeamID }
func (r *TeamAddTask) Team() string           { return r.TeamID }
func (r *TeamSubmitPlan) Team() string        { return r.TeamID }
func (r *TeamClaimTask) Team() string         { return r.TeamID }
func (r *TeamCompleteTask) Team() string      { return r.TeamID }
func (r *TeamSetPlanStatus) Team() string     { return r.TeamID }
func (r *TeamAutoClaim) Team() string         { return r.TeamID }
func (r *TeamReleaseTask) Team() string       { return r.TeamID }
func (r *TeamSetMode) Team() string           { return r.TeamID }
func (r *TeamSetDelegationOnly) Team() string { return r.TeamID }
func (r *TeamSetRecoveryPolicy) Team() string { return r.TeamID }
func (r *TeamRemoveMember) Team() string      { return r.TeamID }
func (r *TeamRestartMember) Team() string     { return r.TeamID }
func (r *TeamCleanup) Team() string           { return r.TeamID }
func (r *TeamPruneTerminated) Team() string   { return r.TeamID }
func (r *TeamPostMessage) Team() string       { return r.TeamID }
func (r *TeamListMessages) Team() string      { return r.TeamID }
func (r *TeamMarkMessageRead) Team() string   { return r.TeamID }
func (r *TeamUsage) Team() string             { return r.TeamID }

// newRequest returns an empty request for the kind, or nil if unknown.
func newRequest(k Kind) Request {
	switch k {
	case KindPing:
		return &Ping{}
	case KindListSessions:
		return &ListSessions{}
	case KindTeamList:
		return &TeamList{}
	case KindCreateSession:
		return &CreateSession{}
	case KindAttachSession:
		return &AttachSession{}
	case KindTeamCreate:
		return &TeamCreate{}
	case KindTeamAddMember:
		return &TeamAddMember{}
	case KindTeamAddTask:
		return &TeamAddTask{}
	case KindTeamSubmitPlan:
		return &TeamSubmitPlan{}
	case KindTeamClaimTask:
		return &TeamClaimTask{}
	case KindTeamCompleteTask:
		return &TeamCompleteTask{}
	case KindTeamSetPlanStatus:
		return &TeamSetPlanStatus{}
	case KindTeamAutoClaim:
		return &TeamAutoClaim{}
	case KindTeamReleaseTask:
		return &TeamReleaseTask{}
	case KindTeamSetMode:
		return &TeamSetMode{}
	case KindTeamSetDelegationOnly:
		return &TeamSetDelegationOnly{}
	case KindTeamSetRecoveryPolicy:
		return &TeamSetRecoveryPolicy{}
	case KindTeamRemoveMember:
		return &TeamRemoveMember{}
	case KindTeamRestartMember:
		return &TeamRestartMember{}
	case KindTeamCleanup:
		return &TeamCleanup{}
	case KindTeamPruneTerminated:
		return &TeamPruneTerminated{}
	case KindTeamPostMessage:
		return &TeamPostMessage{}
	case KindTeamListMessages:
		return &TeamListMessages{}
	case KindTeamMarkMessageRead:
		return &TeamMarkMessageRead{}
	case KindTeamUsage:
		return &TeamUsage{}
	case KindPaneAppendLog:
		return &PaneAppendLog{}
	case KindPaneLog:
		return &PaneLog{}
	}
	return nil
}

// Mutating reports whether the request can change persisted state. Pane
// log lines are memory-only and do not count.
func Mutating(req Request) bool {
	switch req.Kind() {
	case KindPing, KindListSessions, KindTeamList, KindTeamListMessages,
		KindTeamUsage, KindPaneAppendLog, KindPaneLog:
		return false
	}
	return true
}

// TeamOf returns the team a request targets, or "" for requests that are
// not team scoped.
func TeamOf(req Request) string {
	if ts, ok := req.(TeamScoped); ok {
		return ts.Team()
	}
	return ""
}

// validator is implemented by requests with required fields.
type validator interface {
	validate() error
}

func (r *CreateSession) validate() error { return validate.RequiredField("name", r.Name) }
func (r *AttachSession) validate() error { return validate.RequiredField("name", r.Name) }

func (r *TeamCreate) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		criterio.Run("mode", string(r.Mode), required),
	)
}

// Member names, models and task titles are opaque and may be empty.
func (r *TeamAddMember) validate() error { return teamField(r.TeamID) }

func (r *TeamAddTask) validate() error {
	var errs criterio.FieldErrorsBuilder
	if err := validate.Required(r.TeamID); err != nil {
		errs = errs.Append("team_id", err)
	}
	for _, dep := range r.Deps {
		if err := validate.NonNegative(dep); err != nil {
			errs = errs.Append("deps", err)
		}
	}
	return errs.ToError()
}

func (r *TeamSubmitPlan) validate() error {
	return criterio.ValidateStruct(teamField(r.TeamID), validate.NonNegativeField("member_id", r.MemberID))
}

func (r *TeamClaimTask) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		validate.NonNegativeField("member_id", r.MemberID),
		validate.NonNegativeField("task_id", r.TaskID),
	)
}

func (r *TeamCompleteTask) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		validate.NonNegativeField("member_id", r.MemberID),
		validate.NonNegativeField("task_id", r.TaskID),
	)
}

func (r *TeamSetPlanStatus) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		validate.NonNegativeField("member_id", r.MemberID),
		criterio.Run("status", string(r.Status), required),
	)
}

func (r *TeamAutoClaim) validate() error {
	return criterio.ValidateStruct(teamField(r.TeamID), validate.NonNegativeField("member_id", r.MemberID))
}

func (r *TeamReleaseTask) validate() error {
	return criterio.ValidateStruct(teamField(r.TeamID), validate.NonNegativeField("task_id", r.TaskID))
}

func (r *TeamSetMode) validate() error {
	return criterio.ValidateStruct(teamField(r.TeamID), criterio.Run("mode", string(r.Mode), required))
}

func (r *TeamSetDelegationOnly) validate() error { return teamField(r.TeamID) }

func (r *TeamSetRecoveryPolicy) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		criterio.Run("recovery_policy", string(r.RecoveryPolicy), required),
	)
}

func (r *TeamRemoveMember) validate() error {
	return criterio.ValidateStruct(teamField(r.TeamID), validate.NonNegativeField("member_id", r.MemberID))
}

func (r *TeamRestartMember) validate() error {
	return criterio.ValidateStruct(teamField(r.TeamID), validate.NonNegativeField("member_id", r.MemberID))
}

func (r *TeamCleanup) validate() error         { return teamField(r.TeamID) }
func (r *TeamPruneTerminated) validate() error { return teamField(r.TeamID) }
func (r *TeamUsage) validate() error           { return teamField(r.TeamID) }

func (r *TeamPostMessage) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		validate.OptionalNonNegativeField("from_member", r.FromMember),
		validate.OptionalNonNegativeField("to_member", r.ToMember),
		criterio.Run("priority", string(r.Priority), required),
	)
}

func (r *TeamListMessages) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		validate.OptionalNonNegativeField("viewer_member", r.ViewerMember),
	)
}

func (r *TeamMarkMessageRead) validate() error {
	return criterio.ValidateStruct(
		teamField(r.TeamID),
		validate.NonNegativeField("member_id", r.MemberID),
		validate.NonNegativeField("message_id", r.MessageID),
	)
}

func (r *PaneAppendLog) validate() error {
	return criterio.ValidateStruct(
		validate.RequiredField("session", r.Session),
		validate.NonNegativeField("pane_id", r.PaneID),
	)
}

func (r *PaneLog) validate() error {
	return criterio.ValidateStruct(
		validate.RequiredField("session", r.Session),
		validate.NonNegativeField("pane_id", r.PaneID),
	)
}

// required rejects enum fields that were absent from the request; present
// values were already checked by their UnmarshalText.
func required(s string) error {
	return validate.Required(s)
}

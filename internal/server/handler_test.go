package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/core/team"
	"github.com/colonyops/orchestraterm/internal/protocol"
)

func TestHandle_TeamWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	steps := []struct {
		req  protocol.Request
		want string
	}{
		{&protocol.TeamCreate{TeamID: "alpha", Mode: team.ModeInProcess}, "created team: alpha"},
		{&protocol.TeamAddMember{TeamID: "alpha", Name: "lead", Model: "gpt-5", IsLead: true}, "member added: lead (id=0)"},
		{&protocol.TeamAddMember{TeamID: "alpha", Name: "worker", Model: "gpt-5"}, "member added: worker (id=1)"},
		{&protocol.TeamAddTask{TeamID: "alpha", Title: "schema"}, "task added: schema (id=0)"},
		{&protocol.TeamAddTask{TeamID: "alpha", Title: "api", Deps: []int{0}}, "task added: api (id=1)"},
		{&protocol.TeamClaimTask{TeamID: "alpha", MemberID: 1, TaskID: 0}, "task claimed: 0"},
		{&protocol.TeamCompleteTask{TeamID: "alpha", MemberID: 1, TaskID: 0, InputTokens: 10, OutputTokens: 5, CostUSD: 0.25}, "task completed: 0"},
		{&protocol.TeamAutoClaim{TeamID: "alpha", MemberID: 1}, "auto-claimed task: 1"},
		{&protocol.TeamAutoClaim{TeamID: "alpha", MemberID: 1}, "no claimable task"},
		{&protocol.TeamPostMessage{TeamID: "alpha", FromMember: ptr(0), Text: "ship it", Priority: team.PriorityHigh}, "message posted: 0"},
		{&protocol.TeamMarkMessageRead{TeamID: "alpha", MemberID: 1, MessageID: 0}, "message marked as read"},
		{&protocol.TeamSetMode{TeamID: "alpha", Mode: team.ModeSplitPane}, "team mode updated"},
		{&protocol.TeamSetDelegationOnly{TeamID: "alpha", DelegationOnly: true}, "delegation mode updated"},
		{&protocol.TeamSetRecoveryPolicy{TeamID: "alpha", RecoveryPolicy: team.RecoveryManual}, "recovery policy updated"},
		{&protocol.TeamSubmitPlan{TeamID: "alpha", MemberID: 1, Plan: "do it"}, "plan submitted for member: 1"},
		{&protocol.TeamSetPlanStatus{TeamID: "alpha", MemberID: 1, Status: team.PlanApproved}, "member plan status updated: 1"},
		{&protocol.TeamRemoveMember{TeamID: "alpha", MemberID: 1, Reason: "crashed"}, "member terminated: 1"},
		{&protocol.TeamReleaseTask{TeamID: "alpha", TaskID: 1}, "task released: 1"},
		{&protocol.TeamRestartMember{TeamID: "alpha", MemberID: 1}, "member restarted: 1"},
		{&protocol.TeamPruneTerminated{TeamID: "alpha"}, "terminated members pruned"},
	}

	for _, step := range steps {
		resp := f.srv.Handle(ctx, step.req)
		require.True(t, resp.OK, "%s: %s", step.req.Kind(), resp.Message)
		assert.Equal(t, step.want, resp.Message)
		assert.Equal(t, []string{"default"}, resp.Sessions)
		require.Len(t, resp.Teams, 1)
	}

	resp := f.srv.Handle(ctx, &protocol.TeamUsage{TeamID: "alpha"})
	require.True(t, resp.OK)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, uint64(10), resp.Usage.InputTokens)
	assert.Equal(t, uint64(5), resp.Usage.OutputTokens)
	assert.InDelta(t, 0.25, resp.Usage.CostUSD, 1e-9)

	resp = f.srv.Handle(ctx, &protocol.TeamListMessages{TeamID: "alpha", ViewerMember: ptr(1), UnreadOnly: true})
	require.True(t, resp.OK)
	assert.Empty(t, resp.Messages)

	resp = f.srv.Handle(ctx, &protocol.TeamCleanup{TeamID: "alpha"})
	require.True(t, resp.OK)
	assert.Equal(t, "team removed: alpha", resp.Message)
	assert.Empty(t, resp.Teams)
}

func TestHandle_DomainErrorsBecomeResponses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.srv.Handle(ctx, &protocol.TeamAddMember{TeamID: "ghost", Name: "w", Model: "m"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Message, "ghost")
	assert.Equal(t, []string{"default"}, resp.Sessions)
	assert.NotNil(t, resp.Tasks)
	assert.NotNil(t, resp.Messages)

	require.True(t, f.srv.Handle(ctx, &protocol.TeamCreate{TeamID: "a", Mode: team.ModeAuto}).OK)
	resp = f.srv.Handle(ctx, &protocol.TeamCreate{TeamID: "a", Mode: team.ModeAuto})
	assert.False(t, resp.OK)

	resp = f.srv.Handle(ctx, &protocol.AttachSession{Name: "missing"})
	assert.False(t, resp.OK)
}

func TestHandle_Sessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.srv.Handle(ctx, &protocol.CreateSession{Name: "work"})
	require.True(t, resp.OK)
	assert.Equal(t, "created session: work", resp.Message)
	assert.Equal(t, []string{"default", "work"}, resp.Sessions)

	resp = f.srv.Handle(ctx, &protocol.AttachSession{Name: "default"})
	require.True(t, resp.OK)
	assert.Equal(t, "active session: default", resp.Message)

	resp = f.srv.Handle(ctx, &protocol.ListSessions{})
	require.True(t, resp.OK)
	assert.Equal(t, "ok", resp.Message)
}

func TestHandle_TeamListIsSortedAndAlwaysFilled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.True(t, f.srv.Handle(ctx, &protocol.TeamCreate{TeamID: id, Mode: team.ModeAuto}).OK)
	}

	resp := f.srv.Handle(ctx, &protocol.Ping{})
	require.True(t, resp.OK)
	assert.Equal(t, "pong", resp.Message)

	ids := make([]string, 0, len(resp.Teams))
	for _, tm := range resp.Teams {
		ids = append(ids, tm.ID)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ids)
}

func TestHandle_PersistsMutatingRequestsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.Handle(ctx, &protocol.Ping{})
	f.srv.Handle(ctx, &protocol.TeamList{})
	f.srv.Handle(ctx, &protocol.PaneAppendLog{Session: "default", PaneID: 0, Line: "x"})
	assert.Equal(t, 0, f.persister.count())

	f.srv.Handle(ctx, &protocol.TeamCreate{TeamID: "a", Mode: team.ModeAuto})
	assert.Equal(t, 1, f.persister.count())
	assert.Contains(t, string(f.persister.last), `"a"`)

	// failed mutations still persist; the state is identical either way
	f.srv.Handle(ctx, &protocol.TeamCreate{TeamID: "a", Mode: team.ModeAuto})
	assert.Equal(t, 2, f.persister.count())
}

func TestHandle_PersistFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.persister.fail("disk full")

	resp := f.srv.Handle(context.Background(), &protocol.TeamCreate{TeamID: "a", Mode: team.ModeAuto})
	assert.False(t, resp.OK)
	assert.Equal(t, "persist state: disk full", resp.Message)
	require.Len(t, resp.Teams, 1, "the in-memory change is kept")
}

func TestHandle_Poisoned(t *testing.T) {
	f := newFixture(t)
	f.poison(t)

	resp := f.srv.Handle(context.Background(), &protocol.Ping{})
	assert.False(t, resp.OK)
	assert.Equal(t, "service unavailable: state lock poisoned", resp.Message)
	assert.NotNil(t, resp.Sessions)
}

func TestHandle_PaneLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, line := range []string{"one", "two", "three"} {
		resp := f.srv.Handle(ctx, &protocol.PaneAppendLog{Session: "default", PaneID: 0, Line: line})
		require.True(t, resp.OK, resp.Message)
	}

	resp := f.srv.Handle(ctx, &protocol.PaneLog{Session: "default", PaneID: 0, Limit: 2})
	require.True(t, resp.OK)
	assert.Equal(t, []string{"two", "three"}, resp.Lines)

	require.NoError(t, f.srv.SetPaneLogLines(1))
	resp = f.srv.Handle(ctx, &protocol.PaneLog{Session: "default", PaneID: 0})
	require.True(t, resp.OK)
	assert.Equal(t, []string{"three"}, resp.Lines)

	resp = f.srv.Handle(ctx, &protocol.PaneAppendLog{Session: "default", PaneID: 9, Line: "x"})
	assert.False(t, resp.OK)
}

func TestHandle_RecordsJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.srv.Handle(ctx, &protocol.TeamCreate{TeamID: "a", Mode: team.ModeAuto})
	f.srv.Handle(ctx, &protocol.TeamClaimTask{TeamID: "a", MemberID: 0, TaskID: 0})

	entries := f.journal.all()
	require.Len(t, entries, 2)

	assert.Equal(t, "team_create", entries[0].Kind)
	assert.Equal(t, "a", entries[0].TeamID)
	assert.True(t, entries[0].OK)

	assert.Equal(t, "team_claim_task", entries[1].Kind)
	assert.True(t, entries[1].Failed())
	assert.NotEmpty(t, entries[1].Message)
}

func ptr(v int) *int { return &v }

package protocol

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/core/team"
)

func TestDecode(t *testing.T) {
	t.Run("unit variant", func(t *testing.T) {
		req, err := Decode([]byte(`{"type":"ping"}` + "\n"))
		require.NoError(t, err)
		assert.IsType(t, &Ping{}, req)
	})

	t.Run("team create", func(t *testing.T) {
		req, err := Decode([]byte(`{"type":"team_create","team_id":"t1","mode":"split_pane","delegation_only":true}`))
		require.NoError(t, err)
		got := req.(*TeamCreate)
		assert.Equal(t, "t1", got.TeamID)
		assert.Equal(t, team.ModeSplitPane, got.Mode)
		assert.True(t, got.DelegationOnly)
		assert.Equal(t, "t1", TeamOf(req))
	})

	t.Run("optional members", func(t *testing.T) {
		req, err := Decode([]byte(`{"type":"team_post_message","team_id":"t","from_member":null,"to_member":2,"text":"hi","priority":"urgent"}`))
		require.NoError(t, err)
		got := req.(*TeamPostMessage)
		assert.Nil(t, got.FromMember)
		require.NotNil(t, got.ToMember)
		assert.Equal(t, 2, *got.ToMember)
		assert.Equal(t, team.PriorityUrgent, got.Priority)
	})

	t.Run("optional members may be absent", func(t *testing.T) {
		req, err := Decode([]byte(`{"type":"team_list_messages","team_id":"t","unread_only":true}`))
		require.NoError(t, err)
		got := req.(*TeamListMessages)
		assert.Nil(t, got.ViewerMember)
		assert.True(t, got.UnreadOnly)
	})

	t.Run("empty names and titles", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"team_add_member","team_id":"t","name":"","model":"","require_plan_approval":false,"is_lead":false}`))
		require.NoError(t, err)
		_, err = Decode([]byte(`{"type":"team_add_task","team_id":"t","title":"","deps":null,"touched_files":null}`))
		require.NoError(t, err)
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"team_usage","team_id":"t","extra":1}`))
		require.NoError(t, err)
	})
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "not json", input: `hello`},
		{name: "missing type", input: `{"team_id":"t"}`},
		{name: "unknown type", input: `{"type":"team_explode"}`},
		{name: "invalid enum", input: `{"type":"team_set_mode","team_id":"t","mode":"tiled"}`},
		{name: "negative tokens", input: `{"type":"team_complete_task","team_id":"t","member_id":0,"task_id":0,"input_tokens":-5,"output_tokens":0,"cost_usd":0}`},
		{name: "wrong field type", input: `{"type":"team_claim_task","team_id":"t","member_id":"zero","task_id":0}`},
		{name: "blank team id", input: `{"type":"team_usage","team_id":"  "}`, field: "team_id"},
		{name: "missing enum", input: `{"type":"team_set_recovery_policy","team_id":"t"}`, field: "recovery_policy"},
		{name: "negative member", input: `{"type":"team_auto_claim","team_id":"t","member_id":-1}`, field: "member_id"},
		{name: "blank session", input: `{"type":"create_session","name":""}`, field: "name"},
		{name: "missing member id", input: `{"type":"team_remove_member","team_id":"t","reason":"x"}`, field: "member_id"},
		{name: "missing task id", input: `{"type":"team_claim_task","team_id":"t","member_id":0}`, field: "task_id"},
		{name: "missing cost", input: `{"type":"team_complete_task","team_id":"t","member_id":0,"task_id":0,"input_tokens":1,"output_tokens":1}`, field: "cost_usd"},
		{name: "missing flag", input: `{"type":"team_create","team_id":"t","mode":"auto"}`, field: "delegation_only"},
		{name: "missing unread flag", input: `{"type":"team_list_messages","team_id":"t"}`, field: "unread_only"},
		{name: "missing deps", input: `{"type":"team_add_task","team_id":"t","title":"A","touched_files":[]}`, field: "deps"},
		{name: "missing team id", input: `{"type":"team_usage"}`, field: "team_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)

			if tt.field != "" {
				var fieldErrs criterio.FieldErrors
				require.ErrorAs(t, err, &fieldErrs)
				assert.Equal(t, tt.field, fieldErrs[0].Field)
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	to := 1
	requests := []Request{
		&Ping{},
		&ListSessions{},
		&CreateSession{Name: "work"},
		&TeamAddTask{TeamID: "t", Title: "A", Deps: []int{0}, TouchedFiles: []string{"a.go"}},
		&TeamCompleteTask{TeamID: "t", MemberID: 1, TaskID: 2, InputTokens: 100, OutputTokens: 20, CostUSD: 0.01},
		&TeamPostMessage{TeamID: "t", ToMember: &to, Text: "hi", Priority: team.PriorityNormal},
		&TeamReleaseTask{TeamID: "t", TaskID: 3},
		&PaneLog{Session: "default", PaneID: 0, Limit: 10},
	}

	for _, req := range requests {
		t.Run(string(req.Kind()), func(t *testing.T) {
			line, err := Encode(req)
			require.NoError(t, err)
			assert.NotContains(t, string(line), "\n")

			var tagged map[string]any
			require.NoError(t, json.Unmarshal(line, &tagged))
			assert.Equal(t, string(req.Kind()), tagged["type"])

			got, err := Decode(line)
			require.NoError(t, err)
			assert.Equal(t, req, got)
		})
	}
}

func TestRequiredKeys(t *testing.T) {
	assert.Equal(t, []string{"team_id", "member_id", "reason"}, requiredKeys(reflect.TypeOf(TeamRemoveMember{})))
	assert.Equal(t, []string{"team_id", "text", "priority"}, requiredKeys(reflect.TypeOf(TeamPostMessage{})))
	assert.Empty(t, requiredKeys(reflect.TypeOf(Ping{})))
}

func TestMutating(t *testing.T) {
	assert.False(t, Mutating(&Ping{}))
	assert.False(t, Mutating(&TeamList{}))
	assert.False(t, Mutating(&TeamUsage{TeamID: "t"}))
	assert.False(t, Mutating(&TeamListMessages{TeamID: "t"}))
	assert.False(t, Mutating(&PaneAppendLog{Session: "s"}))

	assert.True(t, Mutating(&CreateSession{Name: "s"}))
	assert.True(t, Mutating(&TeamAutoClaim{TeamID: "t"}))
	assert.True(t, Mutating(&TeamMarkMessageRead{TeamID: "t"}))
	assert.True(t, Mutating(&TeamReleaseTask{TeamID: "t"}))
}

func TestResponse(t *testing.T) {
	line, err := EncodeResponse(Response{OK: true, Message: "pong"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"message":"pong","sessions":[],"teams":[],"tasks":[],"messages":[],"usage":null}`, string(line))

	resp, err := DecodeResponse([]byte(`{"ok":false,"message":"unknown team: x","sessions":["default"]}`))
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, []string{"default"}, resp.Sessions)
	assert.NotNil(t, resp.Teams)
	assert.EqualError(t, resp.AsError(), "unknown team: x")

	assert.NoError(t, OK("fine").AsError())
	assert.False(t, Err("bad").OK)
}

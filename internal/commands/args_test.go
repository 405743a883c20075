package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/core/team"
)

func TestSplitList(t *testing.T) {
	got := splitList([]string{"a.go, b.go", "", " ,c.go"})
	assert.Equal(t, []string{"a.go", "b.go", "c.go"}, got)
	assert.Empty(t, splitList(nil))
}

func TestSplitIDs(t *testing.T) {
	ids, err := splitIDs([]string{"0,2", "5"}, "dependency")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, ids)

	_, err = splitIDs([]string{"1,x"}, "dependency")
	require.EqualError(t, err, `invalid dependency: "x"`)

	_, err = splitIDs([]string{"-3"}, "dependency")
	require.Error(t, err)
}

func TestFilterTasks(t *testing.T) {
	assignee := 0
	tasks := []team.Task{
		{ID: 0, Status: team.TaskPending, TouchedFiles: []string{"db/schema.sql"}},
		{ID: 1, Status: team.TaskInProgress, Assignee: &assignee, TouchedFiles: []string{" Internal/Server/Handler.go "}},
		{ID: 2, Status: team.TaskDone, TouchedFiles: []string{"internal/server/server.go", "README.md"}},
		{ID: 3, Status: team.TaskBlocked},
	}

	ids := func(ts []team.Task) []int {
		out := []int{}
		for _, task := range ts {
			out = append(out, task.ID)
		}
		return out
	}

	tests := []struct {
		name    string
		pattern string
		status  team.TaskStatus
		want    []int
	}{
		{name: "no filter", want: []int{0, 1, 2, 3}},
		{name: "glob across dirs", pattern: "internal/**/*.go", want: []int{1, 2}},
		{name: "pattern is case insensitive", pattern: "INTERNAL/server/handler.go", want: []int{1}},
		{name: "status only", status: team.TaskBlocked, want: []int{3}},
		{name: "glob and status", pattern: "**/*.go", status: team.TaskDone, want: []int{2}},
		{name: "no match", pattern: "*.rs", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(filterTasks(tasks, tt.pattern, tt.status)))
		})
	}
}

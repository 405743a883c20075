package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/core/engine"
	"github.com/colonyops/orchestraterm/internal/core/team"
)

func TestResolveRuntimeDir(t *testing.T) {
	t.Run("explicit override", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "rt")
		got, err := ResolveRuntimeDir("  " + dir + "  ")
		require.NoError(t, err)
		assert.Equal(t, dir, got)
		assert.DirExists(t, dir)
	})

	t.Run("environment", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "from-env")
		t.Setenv(EnvRuntimeDir, dir)
		got, err := ResolveRuntimeDir("")
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("blank environment falls back to cwd", func(t *testing.T) {
		t.Setenv(EnvRuntimeDir, "   ")
		t.Chdir(t.TempDir())
		got, err := ResolveRuntimeDir("")
		require.NoError(t, err)
		assert.Equal(t, defaultRuntimeDirName, filepath.Base(got))
	})
}

func TestStateStore_RoundTrip(t *testing.T) {
	path := StatePath(t.TempDir())
	store := NewStateStore(path, zerolog.Nop())

	state := engine.Default()
	state.SetClock(func() time.Time { return time.Unix(1_700_000_000, 0) })
	state.CreateSession("work")
	require.NoError(t, state.CreateTeam("t1", team.ModeSplitPane, false))
	w, err := state.AddMember("t1", "w", "gpt-5", false, false)
	require.NoError(t, err)
	a, err := state.AddTask("t1", "A", nil, []string{"x.go"})
	require.NoError(t, err)
	_, err = state.AddTask("t1", "B", []int{a.ID}, nil)
	require.NoError(t, err)
	_, err = state.ClaimTask("t1", w.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, store.Save(state))
	assert.NoFileExists(t, path+".tmp")

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Sessions, got.Sessions)
	assert.Equal(t, state.ActiveSession, got.ActiveSession)
	assert.Equal(t, state.Teams, got.Teams)
}

func TestStateStore_LoadOrDefault(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file", content: nil},
		{name: "empty file", content: ptr("")},
		{name: "corrupt file", content: ptr("{not json")},
		{name: "invalid enum", content: ptr(`{"sessions":{},"teams":{"t":{"id":"t","mode":"weird"}}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := StatePath(t.TempDir())
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o644))
			}

			got := NewStateStore(path, zerolog.Nop()).LoadOrDefault()
			assert.Equal(t, engine.Default().Sessions, got.Sessions)
			assert.Empty(t, got.Teams)
		})
	}
}

func TestStateStore_OpenReplacesCorruptFile(t *testing.T) {
	path := StatePath(t.TempDir())
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStateStore(path, zerolog.Nop())
	state := store.Open()
	assert.Empty(t, state.Teams)

	got, err := store.Load()
	require.NoError(t, err, "file is rewritten before any mutation")
	assert.Equal(t, state.Sessions, got.Sessions)
}

func TestStateStore_OpenUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	state := NewStateStore(filepath.Join(blocker, "engine-state.json"), zerolog.Nop()).Open()
	require.NotNil(t, state)
}

func TestStateStore_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	store := NewStateStore(filepath.Join(blocker, "engine-state.json"), zerolog.Nop())
	err := store.Save(engine.Default())
	require.Error(t, err)
}

func ptr[T any](v T) *T { return &v }

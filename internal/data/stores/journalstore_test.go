package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/core/journal"
	"github.com/colonyops/orchestraterm/internal/data/db"
)

func openJournalStore(t *testing.T) *JournalStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewJournalStore(database)
}

func TestJournalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("record and get", func(t *testing.T) {
		store := openJournalStore(t)

		now := time.Unix(1_700_000_000, 0)
		require.NoError(t, store.Record(ctx, journal.Entry{
			ID:         "e1",
			Kind:       "team_claim_task",
			TeamID:     "alpha",
			OK:         false,
			Message:    "task is not pending: 3",
			DurationMS: 4,
			CreatedAt:  now,
		}))

		got, err := store.Get(ctx, "e1")
		require.NoError(t, err)
		assert.Equal(t, "team_claim_task", got.Kind)
		assert.Equal(t, "alpha", got.TeamID)
		assert.True(t, got.Failed())
		assert.Equal(t, int64(4), got.DurationMS)
		assert.True(t, now.Equal(got.CreatedAt))
	})

	t.Run("fills id and timestamp", func(t *testing.T) {
		store := openJournalStore(t)

		require.NoError(t, store.Record(ctx, journal.Entry{Kind: "ping", OK: true, Message: "pong"}))

		items, err := store.List(ctx, journal.Filter{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.NotEmpty(t, items[0].ID)
		assert.False(t, items[0].CreatedAt.IsZero())
	})

	t.Run("get missing", func(t *testing.T) {
		store := openJournalStore(t)

		_, err := store.Get(ctx, "nope")
		require.ErrorIs(t, err, journal.ErrNotFound)
	})

	t.Run("list filters and orders newest first", func(t *testing.T) {
		store := openJournalStore(t)

		base := time.Unix(1_700_000_000, 0)
		entries := []journal.Entry{
			{Kind: "team_create", TeamID: "alpha", OK: true},
			{Kind: "team_claim_task", TeamID: "alpha", OK: false},
			{Kind: "team_create", TeamID: "beta", OK: true},
			{Kind: "ping", OK: true},
		}
		for i, e := range entries {
			e.CreatedAt = base.Add(time.Duration(i) * time.Second)
			require.NoError(t, store.Record(ctx, e))
		}

		all, err := store.List(ctx, journal.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "ping", all[0].Kind)
		assert.Equal(t, "team_create", all[3].Kind)

		alpha, err := store.List(ctx, journal.Filter{TeamID: "alpha"})
		require.NoError(t, err)
		assert.Len(t, alpha, 2)

		failed, err := store.List(ctx, journal.Filter{FailedOnly: true})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "team_claim_task", failed[0].Kind)

		limited, err := store.List(ctx, journal.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("prune removes old entries", func(t *testing.T) {
		store := openJournalStore(t)

		base := time.Unix(1_700_000_000, 0)
		for i := range 5 {
			require.NoError(t, store.Record(ctx, journal.Entry{
				Kind:      "ping",
				OK:        true,
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}))
		}

		n, err := store.Prune(ctx, base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		items, err := store.List(ctx, journal.Filter{})
		require.NoError(t, err)
		assert.Len(t, items, 3)

		deleted, remaining, err := store.PruneAndCount(ctx, base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		assert.Equal(t, int64(2), remaining)

		deleted, remaining, err = store.PruneAndCount(ctx, base)
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.Equal(t, int64(2), remaining)
	})
}

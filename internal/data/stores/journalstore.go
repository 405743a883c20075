package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/orchestraterm/internal/core/journal"
	"github.com/colonyops/orchestraterm/internal/data/db"
)

// JournalStore implements journal.Store using SQLite.
type JournalStore struct {
	db *db.DB
}

var _ journal.Store = (*JournalStore)(nil)

// NewJournalStore creates a new SQLite-backed journal store.
func NewJournalStore(db *db.DB) *JournalStore {
	return &JournalStore{db: db}
}

// Record persists an entry. Missing ids and timestamps are filled in.
func (s *JournalStore) Record(ctx context.Context, e journal.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var ok int64
	if e.OK {
		ok = 1
	}

	err := s.db.Queries().InsertJournalEntry(ctx, db.InsertJournalEntryParams{
		ID:         e.ID,
		Kind:       e.Kind,
		TeamID:     e.TeamID,
		Ok:         ok,
		Message:    e.Message,
		DurationMs: e.DurationMS,
		CreatedAt:  e.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List returns entries newest first.
func (s *JournalStore) List(ctx context.Context, f journal.Filter) ([]journal.Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = journal.DefaultLimit
	}

	var failedOnly int64
	if f.FailedOnly {
		failedOnly = 1
	}

	rows, err := s.db.Queries().ListJournalEntries(ctx, db.ListJournalEntriesParams{
		TeamID:     f.TeamID,
		FailedOnly: failedOnly,
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	result := make([]journal.Entry, 0, len(rows))
	for _, row := range rows {
		result = append(result, rowToEntry(row))
	}
	return result, nil
}

// Get returns an entry by ID. Returns ErrNotFound if not found.
func (s *JournalStore) Get(ctx context.Context, id string) (journal.Entry, error) {
	row, err := s.db.Queries().GetJournalEntry(ctx, id)
	if IsNotFoundError(err) {
		return journal.Entry{}, journal.ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("get journal entry: %w", err)
	}
	return rowToEntry(row), nil
}

// Prune deletes entries created before olderThan and reports how many
// were removed.
func (s *JournalStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	n, err := s.db.Queries().DeleteJournalEntriesBefore(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune journal entries: %w", err)
	}
	return n, nil
}

// PruneAndCount deletes entries created before olderThan and counts what
// is left, both in one transaction.
func (s *JournalStore) PruneAndCount(ctx context.Context, olderThan time.Time) (deleted, remaining int64, err error) {
	err = s.db.WithTx(ctx, func(q *db.Queries) error {
		if deleted, err = q.DeleteJournalEntriesBefore(ctx, olderThan.UnixNano()); err != nil {
			return fmt.Errorf("prune journal entries: %w", err)
		}
		if remaining, err = q.CountJournalEntries(ctx); err != nil {
			return fmt.Errorf("count journal entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, remaining, nil
}

func rowToEntry(row db.JournalEntry) journal.Entry {
	return journal.Entry{
		ID:         row.ID,
		Kind:       row.Kind,
		TeamID:     row.TeamID,
		OK:         row.Ok != 0,
		Message:    row.Message,
		DurationMS: row.DurationMs,
		CreatedAt:  time.Unix(0, row.CreatedAt),
	}
}

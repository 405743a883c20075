package db

import "context"

// JournalEntry is a row of journal_entries.
type JournalEntry struct {
	ID         string
	Kind       string
	TeamID     string
	Ok         int64
	Message    string
	DurationMs int64
	CreatedAt  int64
}

const insertJournalEntry = `
INSERT INTO journal_entries (id, kind, team_id, ok, message, duration_ms, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertJournalEntryParams struct {
	ID         string
	Kind       string
	TeamID     string
	Ok         int64
	Message    string
	DurationMs int64
	CreatedAt  int64
}

func (q *Queries) InsertJournalEntry(ctx context.Context, arg InsertJournalEntryParams) error {
	_, err := q.db.ExecContext(ctx, insertJournalEntry,
		arg.ID,
		arg.Kind,
		arg.TeamID,
		arg.Ok,
		arg.Message,
		arg.DurationMs,
		arg.CreatedAt,
	)
	return err
}

const getJournalEntry = `
SELECT id, kind, team_id, ok, message, duration_ms, created_at
FROM journal_entries
WHERE id = ?
`

func (q *Queries) GetJournalEntry(ctx context.Context, id string) (JournalEntry, error) {
	row := q.db.QueryRowContext(ctx, getJournalEntry, id)
	var i JournalEntry
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.TeamID,
		&i.Ok,
		&i.Message,
		&i.DurationMs,
		&i.CreatedAt,
	)
	return i, err
}

const listJournalEntries = `
SELECT id, kind, team_id, ok, message, duration_ms, created_at
FROM journal_entries
WHERE (?1 = '' OR team_id = ?1)
  AND (?2 = 0 OR ok = 0)
ORDER BY created_at DESC, rowid DESC
LIMIT ?3
`

type ListJournalEntriesParams struct {
	TeamID     string
	FailedOnly int64
	Limit      int64
}

func (q *Queries) ListJournalEntries(ctx context.Context, arg ListJournalEntriesParams) ([]JournalEntry, error) {
	rows, err := q.db.QueryContext(ctx, listJournalEntries, arg.TeamID, arg.FailedOnly, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []JournalEntry
	for rows.Next() {
		var i JournalEntry
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.TeamID,
			&i.Ok,
			&i.Message,
			&i.DurationMs,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteJournalEntriesBefore = `
DELETE FROM journal_entries
WHERE created_at < ?
`

func (q *Queries) DeleteJournalEntriesBefore(ctx context.Context, createdAt int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteJournalEntriesBefore, createdAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countJournalEntries = `
SELECT COUNT(*) FROM journal_entries
`

func (q *Queries) CountJournalEntries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countJournalEntries)
	var count int64
	err := row.Scan(&count)
	return count, err
}

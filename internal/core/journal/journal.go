// Package journal defines the request journal: one entry per request the
// server handled, kept for auditing and pruned by age.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("journal entry not found")

// Entry records the outcome of one handled request.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	TeamID     string    `json:"team_id,omitempty"`
	OK         bool      `json:"ok"`
	Message    string    `json:"message"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Failed returns true if the request was answered with ok=false.
func (e *Entry) Failed() bool {
	return !e.OK
}

// Filter narrows List results. Zero values mean "no restriction"; a
// non-positive Limit falls back to DefaultLimit.
type Filter struct {
	TeamID     string
	FailedOnly bool
	Limit      int
}

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 50

// Recorder accepts new entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store is a queryable, prunable journal.
type Store interface {
	Recorder
	List(ctx context.Context, f Filter) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Nop discards every entry. It is used when the journal is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

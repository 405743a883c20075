package engine

import "errors"

var (
	ErrUnknownTeam    = errors.New("unknown team")
	ErrTeamExists     = errors.New("team already exists")
	ErrUnknownSession = errors.New("unknown session")
	ErrUnknownPane    = errors.New("unknown pane")

	// ErrPoisoned is returned by Guard.Do after a callback panicked. The
	// state may be half-mutated and is never handed out again.
	ErrPoisoned = errors.New("state lock poisoned")
)

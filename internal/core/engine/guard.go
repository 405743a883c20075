package engine

import (
	"fmt"
	"sync"
)

// Guard is the single exclusive-access handle to a State. Every reader and
// writer goes through Do, so operations are linearized in lock order.
type Guard struct {
	mu       sync.Mutex
	state    *State
	poisoned bool
}

// NewGuard takes ownership of state. Callers must not keep other references.
func NewGuard(state *State) *Guard {
	return &Guard{state: state}
}

// Do runs fn with exclusive access to the state. If fn panics the guard is
// poisoned: the panic is returned as an error wrapping ErrPoisoned and every
// later call fails with ErrPoisoned without running fn.
func (g *Guard) Do(fn func(*State) error) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.poisoned {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			g.poisoned = true
			err = fmt.Errorf("%w: panic: %v", ErrPoisoned, r)
		}
	}()

	return fn(g.state)
}

// Poisoned reports whether a previous callback panicked.
func (g *Guard) Poisoned() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.poisoned
}

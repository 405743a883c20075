package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/core/engine"
	"github.com/colonyops/orchestraterm/internal/core/journal"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type memPersister struct {
	mu    sync.Mutex
	saves int
	err   error
	last  []byte
}

func (p *memPersister) Save(st *engine.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.err != nil {
		return p.err
	}
	bits, err := json.Marshal(st)
	if err != nil {
		return err
	}
	p.last = bits
	return nil
}

func (p *memPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func (p *memPersister) fail(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = errors.New(msg)
}

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memJournal) Record(_ context.Context, e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) all() []journal.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.Entry(nil), j.entries...)
}

type fixture struct {
	srv       *Server
	guard     *engine.Guard
	persister *memPersister
	journal   *memJournal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := engine.Default()
	st.SetClock(func() time.Time { return testNow })
	guard := engine.NewGuard(st)
	p := &memPersister{}
	j := &memJournal{}

	return &fixture{
		srv:       New(Options{Addr: "127.0.0.1:0"}, guard, p, j, zerolog.Nop()),
		guard:     guard,
		persister: p,
		journal:   j,
	}
}

// serve starts the fixture's server on a loopback port and returns its
// address. The server is stopped when the test ends.
func (f *fixture) serve(t *testing.T) (addr string, stop func() error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	var once sync.Once
	var serveErr error
	stop = func() error {
		once.Do(func() {
			cancel()
			select {
			case serveErr = <-done:
			case <-time.After(5 * time.Second):
				serveErr = errors.New("server did not stop")
			}
		})
		return serveErr
	}
	t.Cleanup(func() { _ = stop() })

	return ln.Addr().String(), stop
}

func (f *fixture) poison(t *testing.T) {
	t.Helper()
	err := f.guard.Do(func(*engine.State) error { panic("boom") })
	require.ErrorIs(t, err, engine.ErrPoisoned)
}

package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakePruner) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, olderThan)
	return 1, nil
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestOnce(t *testing.T) {
	p := &fakePruner{}
	now := time.Unix(1_700_000_000, 0)

	Once(context.Background(), p, now, time.Hour)
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.Add(-time.Hour), p.cutoffs[0])

	Once(context.Background(), p, now, 0)
	assert.Len(t, p.cutoffs, 1, "zero retention disables pruning")
}

func TestStart_StopsOnCancel(t *testing.T) {
	p := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Start(ctx, p, 5*time.Millisecond, func() time.Duration { return time.Minute })
		close(done)
	}()

	require.Eventually(t, func() bool { return p.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
}

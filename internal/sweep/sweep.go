// Package sweep periodically prunes journal entries past their retention.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Pruner deletes entries created before a cutoff.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Start prunes entries older than retention() every interval. retention is
// read on every tick so configuration reloads take effect without a
// restart; a non-positive retention skips the tick. It blocks until the
// context is cancelled.
func Start(ctx context.Context, p Pruner, interval time.Duration, retention func() time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			Once(ctx, p, now, retention())
		}
	}
}

// Once runs a single prune pass relative to now.
func Once(ctx context.Context, p Pruner, now time.Time, retention time.Duration) {
	if retention <= 0 {
		return
	}

	n, err := p.Prune(ctx, now.Add(-retention))
	if err != nil {
		log.Debug().Err(err).Msg("journal sweep failed")
		return
	}
	if n > 0 {
		log.Debug().Int64("removed", n).Msg("journal sweep")
	}
}

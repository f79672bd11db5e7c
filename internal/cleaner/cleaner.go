// Package cleaner implements the background sweep of spec §4.J: periodically
// deletes PlayerConnection rows that have gone stale, grounded on the
// teacher's cleanupLoop/gc ticker shape (originally a game-expiry sweep,
// here retargeted to connection rows since games never expire by themselves
// in this spec).
package cleaner

import (
	"context"
	"time"

	"github.com/callegarimattia/battleship-core/internal/scheduler"
)

// Repository is the narrow slice of the connection store the cleaner needs.
type Repository interface {
	DeleteStale(ctx context.Context, olderThan time.Time) (int, error)
}

// Cleaner runs Repository.DeleteStale on a ticker, submitting each tick to
// the shared worker pool rather than running inline on the ticker goroutine.
type Cleaner struct {
	repo      Repository
	pool      *scheduler.Pool
	interval  time.Duration
	threshold time.Duration
	stop      chan struct{}
}

// New wires a cleaner. interval is T_clean (default 1h), threshold is
// T_stale (default 24h), both from spec §6's configuration keys.
func New(repo Repository, pool *scheduler.Pool, interval, threshold time.Duration) *Cleaner {
	return &Cleaner{repo: repo, pool: pool, interval: interval, threshold: threshold, stop: make(chan struct{})}
}

// Run starts the ticker loop. It blocks until Stop is called, so callers
// invoke it as `go cleaner.Run()`.
func (c *Cleaner) Run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.pool.Submit(c.sweep)
		case <-c.stop:
			return
		}
	}
}

// Stop ends the ticker loop.
func (c *Cleaner) Stop() {
	close(c.stop)
}

func (c *Cleaner) sweep() {
	_, _ = c.repo.DeleteStale(context.Background(), time.Now().Add(-c.threshold))
}

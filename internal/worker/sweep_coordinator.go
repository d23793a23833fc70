// Package worker contains background coordinators run alongside the
// HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable is any cache that can drop its expired entries and report
// how many were removed. Implemented by the context builder and the
// recommendation engine.
type Sweepable interface {
	SweepExpired() int
}

// SweepCoordinator periodically evicts expired entries from the
// registered caches so stale snapshots and recommendation lists do not
// accumulate between requests.
type SweepCoordinator struct {
	caches   map[string]Sweepable
	interval time.Duration
}

// NewSweepCoordinator creates a coordinator over the named caches.
func NewSweepCoordinator(caches map[string]Sweepable, interval time.Duration) *SweepCoordinator {
	return &SweepCoordinator{
		caches:   caches,
		interval: interval,
	}
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
//
// The first sweep happens after one full interval rather than at
// startup: freshly started caches are empty, so an immediate pass
// would only add noise.
func (c *SweepCoordinator) Run(ctx context.Context) {
	slog.Info("sweep coordinator started",
		"component", "worker",
		"worker", "sweep-coordinator",
		"interval", c.interval.String(),
		"caches", len(c.caches),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweep coordinator stopped",
				"component", "worker",
				"worker", "sweep-coordinator",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.sweepAll(ctx)
		}
	}
}

// sweepAll runs one eviction pass over every registered cache.
func (c *SweepCoordinator) sweepAll(ctx context.Context) {
	start := time.Now()
	var total int
	for name, cache := range c.caches {
		if ctx.Err() != nil {
			return
		}
		removed := cache.SweepExpired()
		total += removed
		if removed > 0 {
			slog.Debug("cache swept",
				"component", "worker",
				"worker", "sweep-coordinator",
				"cache", name,
				"entries_removed", removed,
			)
		}
	}

	if total > 0 {
		slog.Info("sweep cycle completed",
			"component", "worker",
			"worker", "sweep-coordinator",
			"entries_removed", total,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

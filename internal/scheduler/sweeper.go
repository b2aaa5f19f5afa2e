package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/curio/internal/logger"
)

// DefaultSweepInterval is how often expired in-memory entries are dropped.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper drops expired cache entries and reports how many went away.
type Sweeper interface {
	Sweep() int
}

// CacheSweeper periodically removes expired entries from the in-memory
// cache. Redis expires keys on its own and needs no sweeper.
type CacheSweeper struct {
	sweeper  Sweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewCacheSweeper(s Sweeper, log logger.Logger, interval time.Duration) *CacheSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &CacheSweeper{
		sweeper:  s,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (cs *CacheSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(cs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cs.Collect()
			case <-cs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the sweeper
func (cs *CacheSweeper) Stop() {
	close(cs.stopCh)
}

// Collect runs one sweep.
func (cs *CacheSweeper) Collect() int {
	removed := cs.sweeper.Sweep()
	if removed > 0 {
		cs.logger.Info("expired cache entries swept", logger.Int("removed", removed))
	} else {
		cs.logger.Debug("no expired cache entries")
	}
	return removed
}

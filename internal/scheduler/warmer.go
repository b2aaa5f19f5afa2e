package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/metrics"
)

// DefaultWarmInterval refreshes the cache well inside its 24h window.
const DefaultWarmInterval = 12 * time.Hour

// Warmer repopulates the response cache.
type Warmer interface {
	Warm(ctx context.Context) error
}

// CacheWarmer warms the response cache on start, on every interval and
// whenever the trigger channel fires.
type CacheWarmer struct {
	warmer   Warmer
	logger   logger.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	trigger  <-chan struct{}
	done     chan struct{}
}

// NewCacheWarmer creates a warmer. trigger may be nil.
func NewCacheWarmer(w Warmer, log logger.Logger, interval time.Duration, trigger <-chan struct{}) *CacheWarmer {
	if interval <= 0 {
		interval = DefaultWarmInterval
	}
	return &CacheWarmer{
		warmer:   w,
		logger:   log,
		interval: interval,
		timeout:  30 * time.Second,
		stopCh:   make(chan struct{}),
		trigger:  trigger,
	}
}

// Start warms once, then keeps warming in the background. A failed first
// warm is logged only: the server can still answer from Postgres.
func (cw *CacheWarmer) Start(ctx context.Context) error {
	cw.run(ctx, "startup")

	cw.done = make(chan struct{})
	ticker := time.NewTicker(cw.interval)
	go func() {
		defer close(cw.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.RevalidationsTotal.WithLabelValues("schedule").Inc()
				cw.run(ctx, "interval")
			case <-cw.trigger:
				cw.run(ctx, "trigger")
			case <-cw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the warmer and waits for an in-flight warm to finish.
func (cw *CacheWarmer) Stop() {
	close(cw.stopCh)
	if cw.done != nil {
		<-cw.done
	}
}

func (cw *CacheWarmer) run(ctx context.Context, reason string) {
	ctx, cancel := context.WithTimeout(ctx, cw.timeout)
	defer cancel()

	start := time.Now()
	if err := cw.warmer.Warm(ctx); err != nil {
		cw.logger.Warn("cache warm failed",
			logger.String("reason", reason),
			logger.Error(err))
		return
	}
	cw.logger.Info("cache warmed",
		logger.String("reason", reason),
		logger.Duration("took", time.Since(start)))
}

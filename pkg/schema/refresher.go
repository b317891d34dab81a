package schema

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/retry"
)

// Refresher periodically rebuilds the snapshot and publishes it to the
// registry. A failed refresh keeps the previous snapshot in place.
type Refresher struct {
	registry   *Registry
	discoverer *Discoverer
	period     time.Duration
	logger     *zap.Logger
}

// NewRefresher creates a refresher. If logger is nil, a no-op logger is
// used.
func NewRefresher(registry *Registry, discoverer *Discoverer, period time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{registry: registry, discoverer: discoverer, period: period, logger: logger}
}

// Run refreshes the snapshot on the configured period until ctx is
// cancelled. Each attempt is retried with backoff before giving up until
// the next tick.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("schema refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	var snap *Snapshot
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		var attemptErr error
		snap, attemptErr = r.discoverer.Snapshot(ctx)
		return attemptErr
	})
	if err != nil {
		r.logger.Warn("schema refresh failed; keeping previous snapshot", zap.Error(err))
		return
	}
	r.registry.Replace(snap)
}

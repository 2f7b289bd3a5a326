package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiryWatcher periodically sweeps sessions whose end time has passed, so
// expired sessions are reclassified even when nobody reads them.
type ExpiryWatcher struct {
	engine   *SessionEngine
	interval time.Duration
	logger   *zap.Logger
}

// NewExpiryWatcher builds the watcher.
func NewExpiryWatcher(engine *SessionEngine, interval time.Duration, logger *zap.Logger) *ExpiryWatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryWatcher{engine: engine, interval: interval, logger: logger}
}

// Run sweeps on a fixed interval until ctx is done. Sweep failures are logged
// and retried on the next tick.
func (w *ExpiryWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.engine.ExpireStale(ctx); err != nil {
				w.logger.Warn("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

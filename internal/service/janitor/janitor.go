// Package janitor periodically deletes expired one-time codes and refresh tokens.
package janitor

import (
	"context"
	"time"

	"github.com/nkiryanov/eshop/internal/logger"
)

const defaultInterval = time.Minute

type codeRepo interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshRepo interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type Janitor struct {
	interval time.Duration

	codes   codeRepo
	refresh refreshRepo
	logger  logger.Logger
}

// New creates janitor; interval defaults to one minute
func New(interval time.Duration, codes codeRepo, refresh refreshRepo, l logger.Logger) *Janitor {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Janitor{
		interval: interval,
		codes:    codes,
		refresh:  refresh,
		logger:   l.WithGroup("janitor"),
	}
}

// Run cleans up on every tick until ctx is done
// Returned channel is closed when janitor is stopped
func (j *Janitor) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	j.logger.Debug("Starting janitor", "interval", j.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				j.logger.Debug("Janitor stopped by context")
				return

			case <-ticker.C:
				j.Cleanup(ctx)
			}
		}
	}()

	return idleStopped
}

// Cleanup runs one pass; failures are logged and retried on next tick
func (j *Janitor) Cleanup(ctx context.Context) {
	codes, err := j.codes.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("Failed to delete expired codes", "error", err)
	}

	tokens, err := j.refresh.DeleteExpired(ctx, time.Now())
	if err != nil {
		j.logger.Error("Failed to delete expired refresh tokens", "error", err)
	}

	if codes > 0 || tokens > 0 {
		j.logger.Info("Expired records deleted", "codes", codes, "refresh_tokens", tokens)
	}
}

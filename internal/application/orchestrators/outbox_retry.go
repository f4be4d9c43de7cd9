package orchestrators

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/logger"
)

// StartScheduler runs fn every interval on a background goroutine until ctx
// is cancelled or the returned stop function is called.
// PRE: interval > 0
// POST: goroutine started; stop blocks until it has exited
func StartScheduler(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error, l *zap.Logger) (stop func()) {
	log := logger.OrNop(l)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("scheduler_stopped", zap.String("job", name))
				return
			case <-ticker.C:
				runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
				if err := fn(runCtx); err != nil {
					log.Error("scheduler_job_failed", zap.String("job", name), zap.Error(err))
				}
				runCancel()
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// StartBackgroundWorker periodically processes pending outbox entries.
func StartBackgroundWorker(ctx context.Context, processor *OutboxProcessor, interval time.Duration, l *zap.Logger) (stop func()) {
	return StartScheduler(ctx, "outbox", interval, func(ctx context.Context) error {
		_, err := processor.ProcessPending(ctx)
		return err
	}, l)
}

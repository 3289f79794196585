package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"session-scheduling-backend/config"
	"session-scheduling-backend/internal/store"
)

// Dispatcher periodically hands due reminders to the worker pool.
type Dispatcher struct {
	store      store.Store
	pool       *WorkerPool
	interval   time.Duration
	batchSize  int
	maxRetries int
	log        *zap.Logger
	now        func() time.Time
}

func NewDispatcher(s store.Store, pool *WorkerPool, cfg config.ReminderConfig, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:      s,
		pool:       pool,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		log:        log,
		now:        time.Now,
	}
}

// Run starts the workers and polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.pool.Start(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("reminder dispatcher started", zap.Duration("interval", d.interval))
	for {
		if _, err := d.RunOnce(ctx); err != nil {
			d.log.Error("reminder poll failed", zap.Error(err))
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			d.log.Info("reminder dispatcher stopped")
			return
		}
	}
}

// RunOnce dispatches one batch of due reminders and returns how many were queued.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	due, err := d.store.DueReminders(ctx, d.now(), d.maxRetries, d.batchSize)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, r := range due {
		if d.pool.Dispatch(ctx, r) {
			queued++
		}
	}
	if queued > 0 {
		d.log.Debug("reminders queued", zap.Int("count", queued))
	}
	return queued, ctx.Err()
}

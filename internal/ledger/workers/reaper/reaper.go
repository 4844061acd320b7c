package reaper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"leadgate/internal/ledger/metrics"
)

// Expirer deletes submission codes that expired at or before now.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// Worker sweeps expired submission codes on an interval.
type Worker struct {
	store    Expirer
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(store Expirer, opts ...Option) (*Worker, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	w := &Worker{
		store:    store,
		logger:   slog.Default(),
		interval: time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("ledger reaper started", "interval", w.interval)
	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Error("ledger_reaper_failed", "error", err)
			}
		case <-ctx.Done():
			w.logger.Info("ledger reaper stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce deletes every expired code and returns how many were removed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	deleted, err := w.store.DeleteExpired(ctx, w.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		w.logger.Info("ledger_reaper_completed", "deleted", deleted)
	}
	if w.metrics != nil {
		w.metrics.Reaped.Add(float64(deleted))
	}
	return deleted, nil
}

package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"leadgate/internal/ratelimit/metrics"
)

// Result describes one cleanup run.
type Result struct {
	Pruned   int
	Duration time.Duration
}

// Pruner drops expired attempts and empty buckets.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service periodically prunes bucket stores that do not expire on their own.
type Service struct {
	store    Pruner
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(store Pruner, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("pruner is required")
	}
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		interval: 5 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs RunOnce every interval until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("ratelimit_cleanup_failed", "error", err)
				if s.metrics != nil {
					s.metrics.CleanupRunsTotal.WithLabelValues("error").Inc()
				}
				continue
			}

			s.logger.Info("ratelimit_cleanup_completed",
				"pruned", res.Pruned,
				"duration_ms", res.Duration.Milliseconds(),
			)
			if s.metrics != nil {
				s.metrics.CleanupRunsTotal.WithLabelValues("success").Inc()
				s.metrics.CleanupBucketsPruned.Add(float64(res.Pruned))
				s.metrics.CleanupDurationSeconds.Observe(res.Duration.Seconds())
			}

		case <-ctx.Done():
			s.logger.Info("ratelimit cleanup worker stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce executes a single cleanup pass. Logging is left to Start.
func (s *Service) RunOnce(ctx context.Context) (*Result, error) {
	started := time.Now()
	pruned, err := s.store.Prune(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return &Result{Pruned: pruned, Duration: time.Since(started)}, nil
}

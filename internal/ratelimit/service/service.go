// Package service applies the per-submission sliding-window limiters.
//
// Every submission is checked against four windows in order: IP short, IP
// long, email and phone. The first exhausted window wins and the remaining
// ones are not consulted. Identities that are empty or "unknown" are exempt.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadgate/internal/ratelimit/config"
	"leadgate/internal/ratelimit/metrics"
	"leadgate/internal/ratelimit/models"
	"leadgate/pkg/platform/privacy"
	"leadgate/pkg/requestcontext"
)

// BucketStore records attempts in sliding windows.
type BucketStore interface {
	CheckAndRecord(ctx context.Context, key string, maxRequests int, window time.Duration, now time.Time) (exceeded bool, err error)
}

// Service is safe for concurrent use.
type Service struct {
	buckets BucketStore
	logger  *slog.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default windows.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a limiter service over the given bucket store.
func New(buckets BucketStore, opts ...Option) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("buckets store is required")
	}
	svc := &Service{
		buckets: buckets,
		logger:  slog.Default(),
		config:  config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckAndRecord applies one limit to one key. Exempt keys are never
// recorded and never exceeded.
func (s *Service) CheckAndRecord(ctx context.Context, key models.Key, limit models.Limit) (bool, error) {
	if key.Exempt() {
		return false, nil
	}
	exceeded, err := s.buckets.CheckAndRecord(ctx, key.String(), limit.Max, limit.Window, requestcontext.Now(ctx))
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementStoreErrors(limit.Name)
		}
		return false, fmt.Errorf("check %s: %w", limit.Name, err)
	}
	if s.metrics != nil {
		s.metrics.ObserveCheck(limit.Name, exceeded)
	}
	return exceeded, nil
}

// CheckSubmission runs the four windows for one submission. A failing store
// does not block: the failed limiter counts as not exceeded, evaluation
// continues, and the failures are returned joined alongside the decision.
func (s *Service) CheckSubmission(ctx context.Context, id models.Identity) (models.Decision, error) {
	checks := []struct {
		key   models.Key
		limit models.Limit
	}{
		{models.NewIPKey(id.IP, "short"), s.config.IPShort},
		{models.NewIPKey(id.IP, "long"), s.config.IPLong},
		{models.NewEmailKey(id.Email), s.config.Email},
		{models.NewPhoneKey(id.Phone), s.config.Phone},
	}

	var errs []error
	for _, c := range checks {
		exceeded, err := s.CheckAndRecord(ctx, c.key, c.limit)
		if err != nil {
			s.logger.ErrorContext(ctx, "ratelimit_store_error",
				"request_id", requestcontext.RequestID(ctx),
				"limiter", c.limit.Name,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		if exceeded {
			s.logger.InfoContext(ctx, "ratelimit_exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"limiter", c.limit.Name,
				"ip", privacy.AnonymizeIP(id.IP),
				"email", privacy.MaskEmail(id.Email),
			)
			return models.Decision{Exceeded: true, Limiter: c.limit.Name, Window: c.limit.Window}, errors.Join(errs...)
		}
	}
	return models.Decision{}, errors.Join(errs...)
}

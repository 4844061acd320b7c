package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"leadgate/internal/killswitch/metrics"
	"leadgate/internal/killswitch/store"
	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/sentinel"
	"leadgate/pkg/requestcontext"
)

// DefaultCacheTTL bounds how stale a process may be after a toggle made
// through another instance.
const DefaultCacheTTL = 60 * time.Second

// ReadErrorBackoff is how long a fallback answer is served after a failed
// store read before the store is tried again.
const ReadErrorBackoff = 5 * time.Second

type Store interface {
	Get(ctx context.Context) (*store.Setting, error)
	Set(ctx context.Context, setting store.Setting) error
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// Service answers whether form submissions are accepted, reading the durable
// record through a short process-local cache.
type Service struct {
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu         sync.RWMutex
	enabled    bool
	validUntil time.Time
}

func New(st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("kill-switch store is required")
	}
	s := &Service{
		store:   st,
		ttl:     DefaultCacheTTL,
		logger:  slog.Default(),
		enabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IsEnabled never fails. A missing record means enabled; a read error keeps
// the last cached value, or enabled when nothing was cached yet, for
// ReadErrorBackoff.
func (s *Service) IsEnabled(ctx context.Context) bool {
	now := requestcontext.Now(ctx)

	s.mu.RLock()
	if now.Before(s.validUntil) {
		enabled := s.enabled
		s.mu.RUnlock()
		return enabled
	}
	fallback := s.enabled
	s.mu.RUnlock()

	setting, err := s.store.Get(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.remember(true, now.Add(s.ttl))
		return true
	case err != nil:
		if s.metrics != nil {
			s.metrics.ReadErrors.Inc()
		}
		s.logger.WarnContext(ctx, "killswitch_read_failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
			"fallback", fallback,
		)
		s.remember(fallback, now.Add(min(s.ttl, ReadErrorBackoff)))
		return fallback
	}
	s.remember(setting.Enabled, now.Add(s.ttl))
	return setting.Enabled
}

// SetEnabled writes through to the store and refreshes the cache.
func (s *Service) SetEnabled(ctx context.Context, enabled bool, actor string) error {
	now := requestcontext.Now(ctx)
	if err := s.store.Set(ctx, store.Setting{Enabled: enabled, UpdatedBy: actor, UpdatedAt: now}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update forms setting")
	}
	s.remember(enabled, now.Add(s.ttl))

	if s.metrics != nil {
		s.metrics.Toggles.WithLabelValues(strconv.FormatBool(enabled)).Inc()
	}
	s.logger.WarnContext(ctx, "killswitch_toggled",
		"request_id", requestcontext.RequestID(ctx),
		"enabled", enabled,
		"actor", actor,
	)
	return nil
}

func (s *Service) remember(enabled bool, until time.Time) {
	s.mu.Lock()
	s.enabled = enabled
	s.validUntil = until
	s.mu.Unlock()

	if s.metrics != nil {
		v := 0.0
		if enabled {
			v = 1
		}
		s.metrics.FormsEnabled.Set(v)
	}
}

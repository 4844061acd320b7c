// Package opmode decides whether outbound calls use the primary or the
// reserve number, caching the verdict in a signed client-held token.
package opmode

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"leadgate/pkg/requestcontext"
)

// HeaderModeToken carries the cache token on requests and responses.
const HeaderModeToken = "X-Mode-Token"

// DefaultVerdictTTL is how long the last probe answers callers that bring no
// usable cache token.
const DefaultVerdictTTL = 30 * time.Second

// Numbers are the outbound caller IDs per mode.
type Numbers struct {
	Primary string
	Reserve string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithVerdictTTL bounds the process-local reuse of the last probe. It is
// capped at the signer's token TTL so a reused token is always still valid.
func WithVerdictTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.verdictTTL = ttl
		}
	}
}

type Service struct {
	signer     *Signer
	prober     Prober
	numbers    Numbers
	logger     *slog.Logger
	metrics    *Metrics
	verdictTTL time.Duration

	probes singleflight.Group

	mu   sync.RWMutex
	last verdict
}

// verdict is the most recent probe outcome and the token minted for it.
type verdict struct {
	mode  Mode
	token string
	at    time.Time
}

func New(signer *Signer, prober Prober, numbers Numbers, opts ...Option) (*Service, error) {
	if signer == nil {
		return nil, errors.New("mode token signer is required")
	}
	if prober == nil {
		return nil, errors.New("health prober is required")
	}
	s := &Service{
		signer:     signer,
		prober:     prober,
		numbers:    numbers,
		logger:     slog.Default(),
		verdictTTL: DefaultVerdictTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.verdictTTL = min(s.verdictTTL, signer.ttl)
	return s, nil
}

// Resolve returns the cached mode and the same token when cacheToken is still
// valid. Otherwise it reuses the last probe while that is younger than the
// verdict TTL, and only then probes. Concurrent probes are collapsed.
func (s *Service) Resolve(ctx context.Context, cacheToken string) (Mode, string, error) {
	now := requestcontext.Now(ctx)
	if cacheToken != "" {
		mode, err := s.signer.Verify(cacheToken, now)
		if err == nil {
			if s.metrics != nil {
				s.metrics.CacheHits.WithLabelValues("token").Inc()
			}
			return mode, cacheToken, nil
		}
		if !errors.Is(err, ErrTokenStale) {
			s.logger.WarnContext(ctx, "opmode_token_rejected",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}

	if v, ok := s.recent(now); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.WithLabelValues("local").Inc()
		}
		return v.mode, v.token, nil
	}

	res, err, _ := s.probes.Do("probe", func() (any, error) {
		if v, ok := s.recent(now); ok {
			return v, nil
		}
		return s.probe(ctx, now)
	})
	v := res.(verdict)
	return v.mode, v.token, err
}

func (s *Service) recent(now time.Time) (verdict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last.token == "" || now.Before(s.last.at) || now.Sub(s.last.at) >= s.verdictTTL {
		return verdict{}, false
	}
	return s.last, true
}

func (s *Service) probe(ctx context.Context, now time.Time) (verdict, error) {
	result := s.prober.Probe(ctx)
	if s.metrics != nil {
		s.metrics.Probes.WithLabelValues(string(result.Mode)).Inc()
	}
	if result.Mode == ModeReserve {
		s.logger.WarnContext(ctx, "opmode_reserve_selected",
			"request_id", requestcontext.RequestID(ctx),
			"reason", result.Reason,
		)
	}

	token, err := s.signer.Mint(result.Mode, now)
	if err != nil {
		return verdict{mode: result.Mode}, err
	}
	v := verdict{mode: result.Mode, token: token, at: now}
	s.mu.Lock()
	s.last = v
	s.mu.Unlock()
	return v, nil
}

// FromNumber returns the configured caller ID for mode. Unknown modes use
// the reserve number.
func (s *Service) FromNumber(mode Mode) string {
	if mode == ModePrimary {
		return s.numbers.Primary
	}
	return s.numbers.Reserve
}

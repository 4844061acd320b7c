// Package service runs the abuse decision engine.
//
// Evaluation order, stopping at the first block:
//  1. honeypot fields (block)
//  2. sliding-window limiters (block)
//  3. user-agent and name-shape heuristics (advisory only)
//
// Limiter store failures fail open.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"leadgate/internal/abuse/metrics"
	"leadgate/internal/abuse/models"
	"leadgate/internal/abuse/signals"
	rlmodels "leadgate/internal/ratelimit/models"
	"leadgate/pkg/platform/privacy"
	"leadgate/pkg/requestcontext"
)

// RateLimiter checks one submission against every keyed window.
type RateLimiter interface {
	CheckSubmission(ctx context.Context, id rlmodels.Identity) (rlmodels.Decision, error)
}

type Service struct {
	limiter RateLimiter
	logger  *slog.Logger
	metrics *metrics.Metrics
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

func New(limiter RateLimiter, opts ...Option) (*Service, error) {
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	s := &Service{limiter: limiter, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Evaluate returns the verdict for one submission. It never returns an error:
// store failures are logged and treated as "not exceeded".
func (s *Service) Evaluate(ctx context.Context, sub models.Submission) models.Verdict {
	if tripped, field := signals.Honeypot(sub.Honeypot); tripped {
		return s.block(ctx, sub, models.Verdict{
			IsBot:   true,
			Blocked: true,
			Kind:    models.KindHoneypot,
			Reason:  "honeypot:" + field,
		})
	}

	decision, err := s.limiter.CheckSubmission(ctx, rlmodels.Identity{IP: sub.IP, Email: sub.Email, Phone: sub.Phone})
	if err != nil {
		s.logger.WarnContext(ctx, "abuse_ratelimit_degraded",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	if decision.Exceeded {
		return s.block(ctx, sub, models.Verdict{
			Blocked: true,
			Kind:    models.KindRateLimit,
			Reason:  "rate_limit:" + decision.Limiter,
			Limiter: decision.Limiter,
		})
	}

	var fired []string
	if suspicious, reason := signals.UserAgent(sub.UserAgent); suspicious {
		fired = append(fired, reason)
	}
	if plausible, reason := signals.NameShape(sub.Name); !plausible {
		fired = append(fired, reason)
	}

	if len(fired) == 0 {
		s.observe(models.KindNone)
		return models.Verdict{Kind: models.KindNone}
	}

	if s.metrics != nil {
		for _, sig := range fired {
			s.metrics.Signals.WithLabelValues(sig).Inc()
		}
	}
	s.observe(models.KindAdvisory)
	s.logger.InfoContext(ctx, "submission_flagged",
		"request_id", requestcontext.RequestID(ctx),
		"blocked", false,
		"signals", strings.Join(fired, ","),
		"ip", privacy.AnonymizeIP(sub.IP),
		"email", privacy.MaskEmail(sub.Email),
	)
	return models.Verdict{
		IsBot:   true,
		Kind:    models.KindAdvisory,
		Reason:  fired[0],
		Signals: fired,
	}
}

func (s *Service) block(ctx context.Context, sub models.Submission, v models.Verdict) models.Verdict {
	s.logger.WarnContext(ctx, "submission_blocked",
		"request_id", requestcontext.RequestID(ctx),
		"blocked", true,
		"kind", string(v.Kind),
		"reason", v.Reason,
		"ip", privacy.AnonymizeIP(sub.IP),
		"email", privacy.MaskEmail(sub.Email),
	)
	s.observe(v.Kind)
	if s.metrics != nil {
		s.metrics.Blocks.WithLabelValues(v.Reason).Inc()
	}
	return v
}

func (s *Service) observe(kind models.Kind) {
	if s.metrics != nil {
		s.metrics.Verdicts.WithLabelValues(string(kind)).Inc()
	}
}

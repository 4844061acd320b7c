// Package captcha verifies CAPTCHA tokens with exactly one configured provider.
package captcha

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leadgate/internal/platform/config"
	"leadgate/pkg/platform/tracer"
	"leadgate/pkg/requestcontext"
)

// Gateway fronts the active provider. A nil provider means the development
// bypass: every token is accepted with Provider=none.
type Gateway struct {
	provider Provider
	client   HTTPDoer
	tracer   tracer.Tracer
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithProvider sets the provider directly, bypassing configuration.
func WithProvider(p Provider) Option {
	return func(g *Gateway) {
		g.provider = p
	}
}

// WithTracer traces calls to the configured provider.
func WithTracer(t tracer.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = t
	}
}

// WithClient sets the HTTP client used to reach the configured provider.
func WithClient(c HTTPDoer) Option {
	return func(g *Gateway) {
		g.client = c
	}
}

// New builds a gateway from configuration. An empty or "none" provider is
// the bypass, refused when production is true.
func New(cfg config.CaptchaConfig, production bool, opts ...Option) (*Gateway, error) {
	g := &Gateway{logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	if g.provider != nil {
		return g, nil
	}

	siteOpts := []SiteverifyOption{
		WithTimeout(cfg.Timeout),
		WithVerifyURL(cfg.VerifyURL),
		WithHTTPClient(g.client),
		WithVerifyTracer(g.tracer),
	}
	switch ProviderName(cfg.Provider) {
	case "", ProviderNone:
		if production {
			return nil, fmt.Errorf("captcha bypass is not allowed in production")
		}
		g.logger.Warn("captcha_bypass_enabled", "provider", string(ProviderNone))
	case ProviderTurnstile:
		g.provider = NewTurnstile(cfg.Secret, siteOpts...)
	case ProviderHCaptcha:
		g.provider = NewHCaptcha(cfg.Secret, siteOpts...)
	case ProviderReCaptcha:
		g.provider = NewReCaptcha(cfg.Secret, cfg.MinScore, siteOpts...)
	default:
		return nil, fmt.Errorf("unknown captcha provider %q", cfg.Provider)
	}
	return g, nil
}

// Provider returns the active provider name.
func (g *Gateway) Provider() ProviderName {
	if g.provider == nil {
		return ProviderNone
	}
	return g.provider.Name()
}

// Verify checks token. It fails closed: anything other than a definite
// success from the provider is invalid.
func (g *Gateway) Verify(ctx context.Context, token, remoteIP string) Verdict {
	if g.provider == nil {
		return Verdict{IsValid: true, Provider: ProviderNone}
	}

	started := time.Now()
	verdict := g.provider.Verify(ctx, token, remoteIP)
	if g.metrics != nil {
		g.metrics.Latency.Observe(time.Since(started).Seconds())
		result := "valid"
		if !verdict.IsValid {
			result = "invalid"
		}
		g.metrics.Verifications.WithLabelValues(string(verdict.Provider), result).Inc()
	}

	if !verdict.IsValid {
		g.logger.InfoContext(ctx, "captcha_rejected",
			"request_id", requestcontext.RequestID(ctx),
			"provider", string(verdict.Provider),
			"error_codes", verdict.ErrorCodes,
		)
	}
	return verdict
}

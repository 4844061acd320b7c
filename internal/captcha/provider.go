package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadgate/pkg/platform/tracer"
	"leadgate/pkg/requestcontext"
)

const (
	TurnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	HCaptchaVerifyURL  = "https://api.hcaptcha.com/siteverify"
	ReCaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

	maxResponseBytes = 64 << 10
)

// Provider verifies a client token against one CAPTCHA backend.
type Provider interface {
	Name() ProviderName
	Verify(ctx context.Context, token, remoteIP string) Verdict
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// siteverifyResponse covers the fields shared by the three providers.
type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Score      *float64 `json:"score,omitempty"`
	Action     string   `json:"action,omitempty"`
}

// Siteverify posts secret, response and remoteip form-encoded to a
// provider's verification endpoint. Any transport, status or decoding
// failure yields an invalid verdict.
type Siteverify struct {
	name      ProviderName
	verifyURL string
	secret    string
	client    HTTPDoer
	tracer    tracer.Tracer
	// minScore > 0 requires a score at or above it.
	minScore float64
}

// SiteverifyOption configures a Siteverify provider.
type SiteverifyOption func(*Siteverify)

// WithVerifyURL overrides the provider's default endpoint.
func WithVerifyURL(u string) SiteverifyOption {
	return func(s *Siteverify) {
		if u != "" {
			s.verifyURL = u
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c HTTPDoer) SiteverifyOption {
	return func(s *Siteverify) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout sets the timeout of the default client.
func WithTimeout(d time.Duration) SiteverifyOption {
	return func(s *Siteverify) {
		if d > 0 {
			s.client = &http.Client{Timeout: d}
		}
	}
}

// WithVerifyTracer wraps each siteverify call in a span.
func WithVerifyTracer(t tracer.Tracer) SiteverifyOption {
	return func(s *Siteverify) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewTurnstile returns a Cloudflare Turnstile provider.
func NewTurnstile(secret string, opts ...SiteverifyOption) *Siteverify {
	return newSiteverify(ProviderTurnstile, TurnstileVerifyURL, secret, 0, opts)
}

// NewHCaptcha returns an hCaptcha provider.
func NewHCaptcha(secret string, opts ...SiteverifyOption) *Siteverify {
	return newSiteverify(ProviderHCaptcha, HCaptchaVerifyURL, secret, 0, opts)
}

// NewReCaptcha returns a reCAPTCHA v3 provider that also requires a score of
// at least minScore.
func NewReCaptcha(secret string, minScore float64, opts ...SiteverifyOption) *Siteverify {
	return newSiteverify(ProviderReCaptcha, ReCaptchaVerifyURL, secret, minScore, opts)
}

func newSiteverify(name ProviderName, verifyURL, secret string, minScore float64, opts []SiteverifyOption) *Siteverify {
	s := &Siteverify{
		name:      name,
		verifyURL: verifyURL,
		secret:    secret,
		client:    &http.Client{Timeout: 5 * time.Second},
		tracer:    tracer.NewNoop(),
		minScore:  minScore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Siteverify) Name() ProviderName { return s.name }

func (s *Siteverify) Verify(ctx context.Context, token, remoteIP string) (verdict Verdict) {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid(s.name, CodeMissingToken)
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanCaptchaVerify, tracer.String(tracer.AttrProvider, string(s.name)))
	var callErr error
	defer func() {
		span.SetAttributes(
			tracer.Bool(tracer.AttrValid, verdict.IsValid),
			tracer.String("captcha.error_codes", strings.Join(verdict.ErrorCodes, ",")),
		)
		span.End(callErr)
	}()

	form := url.Values{}
	form.Set("secret", s.secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != requestcontext.UnknownIP {
		form.Set("remoteip", remoteIP)
	}

	body, err := s.post(ctx, form)
	if err != nil {
		callErr = err
		var statusErr *statusError
		if errors.As(err, &statusErr) {
			return invalid(s.name, CodeBadStatus)
		}
		return invalid(s.name, CodeNetwork)
	}

	var parsed siteverifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		callErr = err
		return invalid(s.name, CodeParse)
	}

	verdict = Verdict{
		IsValid:    parsed.Success,
		Provider:   s.name,
		ErrorCodes: parsed.ErrorCodes,
		Score:      parsed.Score,
	}
	if verdict.IsValid && s.minScore > 0 {
		if parsed.Score == nil || *parsed.Score < s.minScore {
			verdict.IsValid = false
			verdict.ErrorCodes = append(verdict.ErrorCodes, CodeLowScore)
		}
	}
	return verdict
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("siteverify status %d", e.code) }

func (s *Siteverify) post(ctx context.Context, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read siteverify response: %w", err)
	}
	return body, nil
}

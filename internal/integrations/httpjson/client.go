// Package httpjson is a small JSON-over-HTTP client shared by the outbound
// integrations.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadgate/pkg/platform/tracer"
)

const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	Name       string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Tracer     tracer.Tracer
}

// Client sends bearer-authenticated JSON requests relative to a base URL.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  HTTPDoer
	tracer  tracer.Tracer
}

// ConfigOption adjusts a Config before the client is built.
type ConfigOption func(*Config)

// WithTracer wraps every call in a span.
func WithTracer(t tracer.Tracer) ConfigOption {
	return func(c *Config) {
		c.Tracer = t
	}
}

func New(cfg Config, opts ...ConfigOption) *Client {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  selectHTTPClient(cfg),
		tracer:  tracer.OrNoop(cfg.Tracer),
	}
}

func selectHTTPClient(cfg Config) HTTPDoer {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return &http.Client{Timeout: cfg.Timeout}
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Body   any
	// Headers are added after the defaults.
	Headers map[string]string
}

// Do sends req and decodes a 2xx JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	ctx, span := c.tracer.Start(ctx, tracer.SpanUpstreamCall,
		tracer.String(tracer.AttrUpstream, c.name),
		tracer.String(tracer.AttrHTTPMethod, req.Method),
		tracer.String(tracer.AttrHTTPPath, pathOnly(req.Path)),
	)
	err := c.do(ctx, req, out)
	var ue *Error
	if errors.As(err, &ue) {
		span.SetAttributes(tracer.String(tracer.AttrErrorKind, string(ue.Kind)))
		if ue.Status != 0 {
			span.SetAttributes(tracer.Int64(tracer.AttrHTTPStatus, int64(ue.Status)))
		}
	}
	span.End(err)
	return err
}

// pathOnly drops the query string, which may carry contact details.
func pathOnly(p string) string {
	path, _, _ := strings.Cut(p, "?")
	return path
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return c.fail(KindInternal, 0, "failed to marshal request", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return c.fail(KindInternal, 0, "failed to create request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return c.fail(KindTimeout, 0, "request timeout", err)
		}
		return c.fail(KindOutage, 0, "failed to execute request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(KindBadData, resp.StatusCode, "failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return c.fail(KindAuthentication, resp.StatusCode, "authentication failed", nil)
	case resp.StatusCode == http.StatusNotFound:
		return c.fail(KindNotFound, resp.StatusCode, "resource not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return c.fail(KindRateLimited, resp.StatusCode, "rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		return c.fail(KindOutage, resp.StatusCode, fmt.Sprintf("upstream unavailable: %d", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.fail(KindRejected, resp.StatusCode, fmt.Sprintf("request rejected: %d", resp.StatusCode), nil)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return c.fail(KindBadData, resp.StatusCode, "failed to parse response", err)
	}
	return nil
}

func (c *Client) fail(kind Kind, status int, msg string, err error) error {
	return &Error{Kind: kind, Upstream: c.name, Status: status, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

package opmode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadgate/pkg/platform/tracer"
)

// DefaultProbeTimeout bounds one health probe.
const DefaultProbeTimeout = 30 * time.Second

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProbeResult is the mode chosen by one probe and why.
type ProbeResult struct {
	Mode   Mode
	Reason string
}

// Prober asks the external calling platform whether the primary path is healthy.
type Prober interface {
	Probe(ctx context.Context) ProbeResult
}

type healthResponse struct {
	Result string `json:"result"`
}

// HTTPProber issues a GET to the health endpoint. Only a 2xx response whose
// JSON result is "ok" selects primary; every other outcome selects reserve.
type HTTPProber struct {
	url     string
	client  HTTPDoer
	timeout time.Duration
	tracer  tracer.Tracer
}

type ProberOption func(*HTTPProber)

// WithProbeTracer wraps each health probe in a span.
func WithProbeTracer(t tracer.Tracer) ProberOption {
	return func(p *HTTPProber) {
		if t != nil {
			p.tracer = t
		}
	}
}

func NewHTTPProber(url string, timeout time.Duration, client HTTPDoer, opts ...ProberOption) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	p := &HTTPProber{url: url, client: client, timeout: timeout, tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *HTTPProber) Probe(ctx context.Context) ProbeResult {
	if p.url == "" {
		return ProbeResult{Mode: ModeReserve, Reason: "not_configured"}
	}
	ctx, span := p.tracer.Start(ctx, tracer.SpanModeProbe)
	result := p.probe(ctx)
	span.SetAttributes(
		tracer.String(tracer.AttrMode, string(result.Mode)),
		tracer.String(tracer.AttrReason, result.Reason),
	)
	var err error
	if result.Mode != ModePrimary {
		err = fmt.Errorf("health probe selected reserve: %s", result.Reason)
	}
	span.End(err)
	return result
}

func (p *HTTPProber) probe(ctx context.Context) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return ProbeResult{Mode: ModeReserve, Reason: "bad_request"}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProbeResult{Mode: ModeReserve, Reason: "timeout"}
		}
		return ProbeResult{Mode: ModeReserve, Reason: "network_error"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ProbeResult{Mode: ModeReserve, Reason: fmt.Sprintf("status_%d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return ProbeResult{Mode: ModeReserve, Reason: "read_error"}
	}
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return ProbeResult{Mode: ModeReserve, Reason: "bad_json"}
	}
	switch health.Result {
	case "ok":
		return ProbeResult{Mode: ModePrimary, Reason: "ok"}
	case "":
		return ProbeResult{Mode: ModeReserve, Reason: "missing_result"}
	default:
		return ProbeResult{Mode: ModeReserve, Reason: "result_" + health.Result}
	}
}

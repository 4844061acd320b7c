package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadgate/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the webhook breaker rejects calls.
var ErrCircuitOpen = errors.New("webhook circuit open")

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookSink posts events as JSON. Consecutive failures open a breaker so an
// unreachable endpoint stops costing a timeout per submission.
type WebhookSink struct {
	url     string
	client  HTTPDoer
	breaker *circuit.Breaker
}

func NewWebhook(url string, timeout time.Duration, client HTTPDoer, breaker *circuit.Breaker) *WebhookSink {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if breaker == nil {
		breaker = circuit.New("notify_webhook")
	}
	return &WebhookSink{url: url, client: client, breaker: breaker}
}

func (w *WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) Send(ctx context.Context, e Event) error {
	if !w.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := w.post(ctx, e); err != nil {
		w.breaker.RecordFailure()
		return err
	}
	w.breaker.RecordSuccess()
	return nil
}

func (w *WebhookSink) post(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

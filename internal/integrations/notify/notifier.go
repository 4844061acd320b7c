package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"leadgate/pkg/requestcontext"
)

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// WithTimeout bounds one delivery to all sinks.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// Notifier fans events out to every sink in the background. Delivery errors
// are logged and counted, never returned.
type Notifier struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(sinks []Sink, opts ...Option) *Notifier {
	n := &Notifier{
		sinks:   sinks,
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify returns immediately. The request context's values are kept but its
// cancellation is not, so a finished request does not abort delivery.
func (n *Notifier) Notify(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}

	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()
		n.deliver(ctx, e)
	}()
}

func (n *Notifier) deliver(ctx context.Context, e Event) {
	for _, sink := range n.sinks {
		err := sink.Send(ctx, e)
		result := "success"
		if err != nil {
			result = "error"
			n.logger.WarnContext(ctx, "notification_failed",
				"sink", sink.Name(),
				"channel", string(e.Channel),
				"type", e.Type,
				"request_id", e.RequestID,
				"error", err,
			)
		}
		if n.metrics != nil {
			n.metrics.Sent.WithLabelValues(sink.Name(), string(e.Channel), result).Inc()
		}
	}
}

// Wait blocks until every in-flight delivery has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

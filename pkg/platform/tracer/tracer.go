// Package tracer is a small tracing abstraction over OpenTelemetry used
// around outbound calls (CAPTCHA siteverify, mode health probes, CRM and
// dispatch requests).
//
// Implementations:
//   - NoopTracer: the default when nothing is configured
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a span; the returned context carries it to child calls.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanCaptchaVerify,
	//       tracer.String(tracer.AttrProvider, "turnstile"),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// OrNoop returns t, or a NoopTracer when t is nil.
func OrNoop(t Tracer) Tracer {
	if t == nil {
		return NewNoop()
	}
	return t
}

// Span names.
const (
	SpanCaptchaVerify = "captcha.siteverify"
	SpanModeProbe     = "opmode.probe"
	SpanUpstreamCall  = "upstream.call"
)

// Attribute keys.
const (
	AttrProvider   = "captcha.provider"
	AttrValid      = "captcha.valid"
	AttrUpstream   = "upstream.name"
	AttrHTTPMethod = "http.method"
	AttrHTTPPath   = "http.path"
	AttrHTTPStatus = "http.status_code"
	AttrErrorKind  = "error.kind"
	AttrMode       = "opmode.mode"
	AttrReason     = "opmode.reason"
)

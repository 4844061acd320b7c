package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"leadgate/pkg/platform/tracer"
)

func TestNoopTracerLeavesContextAlone(t *testing.T) {
	ctx := context.Background()

	newCtx, span := tracer.NewNoop().Start(ctx, "test.span", tracer.String("key", "value"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Bool("flag", true))
	span.AddEvent("test.event", tracer.Int64("count", 42))
	span.End(errors.New("ignored"))
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, &tracer.NoopTracer{}, tracer.OrNoop(nil))

	otel := tracer.NewOTel()
	assert.Same(t, otel, tracer.OrNoop(otel))
}

func TestAttributeConstructors(t *testing.T) {
	assert.Equal(t, tracer.Attribute{Key: "k", Value: "v"}, tracer.String("k", "v"))
	assert.Equal(t, tracer.Attribute{Key: "ok", Value: true}, tracer.Bool("ok", true))
	assert.Equal(t, tracer.Attribute{Key: "n", Value: int64(3)}, tracer.Int64("n", 3))
	assert.Equal(t, tracer.Attribute{Key: "latency", Value: int64(150)}, tracer.Duration("latency", 150*time.Millisecond))
}

// capturingTracer records what the adapter hands to OpenTelemetry.
type capturingTracer struct {
	embedded.Tracer
	name  string
	attrs []attribute.KeyValue
	span  *capturingSpan
}

func (c *capturingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	c.name = name
	c.attrs = cfg.Attributes()
	c.span = &capturingSpan{Span: noop.Span{}}
	return trace.ContextWithSpan(ctx, c.span), c.span
}

type capturingSpan struct {
	noop.Span
	ended  bool
	errors []error
}

func (s *capturingSpan) End(...trace.SpanEndOption) { s.ended = true }

func (s *capturingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errors = append(s.errors, err)
}

func TestOTelTracerForwardsSpans(t *testing.T) {
	capture := &capturingTracer{}
	tr := tracer.NewOTel(tracer.WithOTelTracer(capture))

	_, span := tr.Start(context.Background(), tracer.SpanUpstreamCall,
		tracer.String(tracer.AttrUpstream, "crm"),
		tracer.Int64(tracer.AttrHTTPStatus, 502),
		tracer.Attribute{Key: "unsupported", Value: struct{}{}},
	)
	boom := errors.New("bad gateway")
	span.End(boom)

	assert.Equal(t, tracer.SpanUpstreamCall, capture.name)
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(tracer.AttrUpstream, "crm"),
		attribute.Int64(tracer.AttrHTTPStatus, 502),
	}, capture.attrs)
	assert.True(t, capture.span.ended)
	assert.Equal(t, []error{boom}, capture.span.errors)
}

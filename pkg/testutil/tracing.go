package testutil

import (
	"context"
	"sync"

	"leadgate/pkg/platform/tracer"
)

// RecordedSpan is one finished span captured by SpanRecorder.
type RecordedSpan struct {
	Name  string
	Attrs map[string]any
	Err   error
}

// SpanRecorder is a tracer.Tracer that keeps every finished span.
type SpanRecorder struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

func (r *SpanRecorder) Start(ctx context.Context, name string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	span := &recordingSpan{recorder: r, span: RecordedSpan{Name: name, Attrs: map[string]any{}}}
	span.SetAttributes(attrs...)
	return ctx, span
}

// Spans returns the finished spans in the order they ended.
func (r *SpanRecorder) Spans() []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedSpan(nil), r.spans...)
}

type recordingSpan struct {
	recorder *SpanRecorder
	span     RecordedSpan
}

func (s *recordingSpan) End(err error) {
	s.span.Err = err
	s.recorder.mu.Lock()
	s.recorder.spans = append(s.recorder.spans, s.span)
	s.recorder.mu.Unlock()
}

func (s *recordingSpan) SetAttributes(attrs ...tracer.Attribute) {
	for _, a := range attrs {
		s.span.Attrs[a.Key] = a.Value
	}
}

func (s *recordingSpan) AddEvent(string, ...tracer.Attribute) {}

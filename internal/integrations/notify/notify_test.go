package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgate/internal/platform/kafka/producer"
	"leadgate/pkg/platform/circuit"
	"leadgate/pkg/requestcontext"
)

type recordingSink struct {
	name   string
	err    error
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Send(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func TestNotifierFansOutAndSwallowsErrors(t *testing.T) {
	ok := &recordingSink{name: "ok"}
	broken := &recordingSink{name: "broken", err: errors.New("boom")}
	m := NewMetrics(prometheus.NewRegistry())
	n := New([]Sink{broken, ok}, WithMetrics(m))

	ctx, cancel := context.WithCancel(requestcontext.WithRequestID(context.Background(), "req-1"))
	n.Notify(ctx, Event{Channel: ChannelHotLead, Type: "call_request", Summary: "Jane Doe"})
	cancel()
	n.Wait()

	require.Len(t, ok.events, 1)
	assert.Equal(t, "req-1", ok.events[0].RequestID)
	assert.False(t, ok.events[0].OccurredAt.IsZero())
	assert.Len(t, broken.events, 1)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.Sent.WithLabelValues("ok", "hot_lead", "success")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.Sent.WithLabelValues("broken", "hot_lead", "error")))
}

func TestWebhookPostsJSON(t *testing.T) {
	var got Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer server.Close()

	sink := NewWebhook(server.URL, time.Second, nil, nil)
	err := sink.Send(context.Background(), Event{Channel: ChannelTrash, Type: "advisory"})

	require.NoError(t, err)
	assert.Equal(t, ChannelTrash, got.Channel)
}

func TestWebhookBreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	breaker := circuit.New("notify_webhook", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	sink := NewWebhook(server.URL, time.Second, nil, breaker)

	for range 2 {
		assert.Error(t, sink.Send(context.Background(), Event{Channel: ChannelOps}))
	}
	assert.ErrorIs(t, sink.Send(context.Background(), Event{Channel: ChannelOps}), ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

type fakeProducer struct {
	msgs []*producer.Message
}

func (f *fakeProducer) Produce(_ context.Context, msg *producer.Message) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestKafkaSinkKeysByChannel(t *testing.T) {
	p := &fakeProducer{}
	sink := NewKafka(p, "leadgate.notifications")

	require.NoError(t, sink.Send(context.Background(), Event{Channel: ChannelHotLead, Type: "call_request"}))

	require.Len(t, p.msgs, 1)
	assert.Equal(t, "leadgate.notifications", p.msgs[0].Topic)
	assert.Equal(t, []byte("hot_lead"), p.msgs[0].Key)
	assert.Equal(t, "call_request", p.msgs[0].Headers["event_type"])

	var decoded Event
	require.NoError(t, json.Unmarshal(p.msgs[0].Value, &decoded))
	assert.Equal(t, ChannelHotLead, decoded.Channel)
}

package httpjson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgate/pkg/platform/tracer"
	"leadgate/pkg/testutil"
)

func TestDoSendsAuthAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "/v1/things", r.URL.Path)

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "x", in["name"])
		_, _ = w.Write([]byte(`{"id":"t-1"}`))
	}))
	defer server.Close()

	c := New(Config{Name: "crm", BaseURL: server.URL + "/v1/", APIKey: "key-1"})
	var out struct {
		ID string `json:"id"`
	}
	err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "/things",
		Body:    map[string]string{"name": "x"},
		Headers: map[string]string{"Idempotency-Key": "abc"},
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "t-1", out.ID)
}

func TestDoClassifiesFailures(t *testing.T) {
	cases := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{http.StatusUnauthorized, KindAuthentication, false},
		{http.StatusNotFound, KindNotFound, false},
		{http.StatusTooManyRequests, KindRateLimited, true},
		{http.StatusUnprocessableEntity, KindRejected, false},
		{http.StatusBadGateway, KindOutage, true},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			err := New(Config{Name: "dispatch", BaseURL: server.URL}).Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}, nil)

			var upstream *Error
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tc.kind, upstream.Kind)
			assert.Equal(t, tc.status, upstream.Status)
			assert.Equal(t, tc.retryable, upstream.IsRetryable())
		})
	}
}

func TestDoTimeoutAndBadJSON(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()

	err := New(Config{Name: "crm", BaseURL: slow.URL, Timeout: 20 * time.Millisecond}).
		Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}, nil)
	assert.Equal(t, KindTimeout, KindOf(err))

	garbled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer garbled.Close()

	var out map[string]any
	err = New(Config{Name: "crm", BaseURL: garbled.URL}).
		Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}, &out)
	assert.Equal(t, KindBadData, KindOf(err))
}

func TestDoIsTraced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	spans := &testutil.SpanRecorder{}
	c := New(Config{Name: "crm", BaseURL: server.URL, Tracer: spans})

	require.NoError(t, c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/contacts/search?email=jane%40example.com"}, nil))
	require.Error(t, c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/contacts"}, nil))

	recorded := spans.Spans()
	require.Len(t, recorded, 2)
	assert.Equal(t, tracer.SpanUpstreamCall, recorded[0].Name)
	assert.Equal(t, "crm", recorded[0].Attrs[tracer.AttrUpstream])
	assert.Equal(t, "/contacts/search", recorded[0].Attrs[tracer.AttrHTTPPath], "query strings stay out of traces")
	assert.NoError(t, recorded[0].Err)

	assert.Equal(t, string(KindAuthentication), recorded[1].Attrs[tracer.AttrErrorKind])
	assert.Equal(t, int64(http.StatusUnauthorized), recorded[1].Attrs[tracer.AttrHTTPStatus])
	assert.Error(t, recorded[1].Err)
}

package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgate/internal/integrations/httpjson"
	"leadgate/internal/platform/config"
)

func TestPlaceCall(t *testing.T) {
	var got callPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"call_id":"call-1","call_status":"registered"}`))
	}))
	defer server.Close()

	client := New(config.DispatchConfig{BaseURL: server.URL, APIKey: "secret", Timeout: time.Second}, nil)
	res, err := client.PlaceCall(context.Background(), Call{
		From:      "+15550001111",
		To:        "+15550102030",
		AgentID:   "agent-7",
		Variables: map[string]string{"name": "Jane"},
	})

	require.NoError(t, err)
	assert.Equal(t, "call-1", res.CallID)
	assert.Equal(t, "registered", res.Status)
	assert.Equal(t, "+15550001111", got.FromNumber)
	assert.Equal(t, "agent-7", got.AgentID)
	assert.Equal(t, "Jane", got.Variables["name"])
}

func TestPlaceCallFailures(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := New(config.DispatchConfig{BaseURL: server.URL}, nil).PlaceCall(context.Background(), Call{To: "+1555"})
		assert.Equal(t, httpjson.KindOutage, httpjson.KindOf(err))
	})

	t.Run("missing call id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := New(config.DispatchConfig{BaseURL: server.URL}, nil).PlaceCall(context.Background(), Call{To: "+1555"})
		assert.Equal(t, httpjson.KindBadData, httpjson.KindOf(err))
	})
}

// Package dispatch asks the voice platform to place an outbound call.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"leadgate/internal/integrations/httpjson"
	"leadgate/internal/platform/config"
	"leadgate/pkg/platform/privacy"
	"leadgate/pkg/requestcontext"
)

// Call describes one outbound call.
type Call struct {
	From      string
	To        string
	AgentID   string
	Variables map[string]string
}

type Result struct {
	CallID string
	Status string
}

type callPayload struct {
	FromNumber string            `json:"from_number"`
	ToNumber   string            `json:"to_number"`
	AgentID    string            `json:"agent_id,omitempty"`
	Variables  map[string]string `json:"dynamic_variables,omitempty"`
}

type callResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"call_status"`
}

type HTTPClient struct {
	api *httpjson.Client
}

func New(cfg config.DispatchConfig, doer httpjson.HTTPDoer, opts ...httpjson.ConfigOption) *HTTPClient {
	return &HTTPClient{api: httpjson.New(httpjson.Config{
		Name:       "dispatch",
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		HTTPClient: doer,
	}, opts...)}
}

func (c *HTTPClient) PlaceCall(ctx context.Context, call Call) (*Result, error) {
	var resp callResponse
	err := c.api.Do(ctx, httpjson.Request{
		Method: http.MethodPost,
		Path:   "/calls",
		Body: callPayload{
			FromNumber: call.From,
			ToNumber:   call.To,
			AgentID:    call.AgentID,
			Variables:  call.Variables,
		},
		Headers: map[string]string{"Idempotency-Key": uuid.NewString()},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("place call: %w", err)
	}
	if resp.CallID == "" {
		return nil, fmt.Errorf("place call: %w", &httpjson.Error{Kind: httpjson.KindBadData, Upstream: "dispatch", Message: "missing call id"})
	}
	return &Result{CallID: resp.CallID, Status: resp.Status}, nil
}

// LoggingClient stands in when no voice platform is configured.
type LoggingClient struct {
	logger *slog.Logger
}

func NewLogging(logger *slog.Logger) *LoggingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingClient{logger: logger}
}

func (c *LoggingClient) PlaceCall(ctx context.Context, call Call) (*Result, error) {
	id := "local-" + uuid.NewString()
	c.logger.InfoContext(ctx, "call_dispatch_logged",
		"request_id", requestcontext.RequestID(ctx),
		"call_id", id,
		"from", call.From,
		"to", privacy.MaskPhone(call.To),
	)
	return &Result{CallID: id, Status: "logged"}, nil
}

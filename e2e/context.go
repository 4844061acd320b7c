package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"leadgate/internal/app"
	"leadgate/internal/platform/config"
	"leadgate/pkg/secrets"
)

const (
	// OperatorToken is accepted by the admin routes of the in-process server.
	OperatorToken = "e2e-operator-token"
	browserUA     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	UserAgent        string
	SavedCode        string
	ModeToken        string

	visitorName  string
	visitorEmail string
	visitorPhone string

	upstream *Upstream
	server   *httptest.Server
	app      *app.App
}

// NewTestContext targets BASE_URL when set, otherwise a fresh in-process
// server backed by stub upstreams.
func NewTestContext() (*TestContext, error) {
	tc := &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		UserAgent:  browserUA,
	}
	if base := os.Getenv("BASE_URL"); base != "" {
		tc.BaseURL = base
		return tc, nil
	}
	if err := tc.startInProcess(); err != nil {
		return nil, err
	}
	return tc, nil
}

func (tc *TestContext) startInProcess() error {
	tc.upstream = NewUpstream()
	hash, err := secrets.Hash(OperatorToken)
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(map[string]string{
		"ENVIRONMENT":           "test",
		"LOG_LEVEL":             "error",
		"STORE_BACKEND":         config.BackendMemory,
		"CAPTCHA_PROVIDER":      "turnstile",
		"CAPTCHA_SECRET":        "e2e-secret",
		"CAPTCHA_VERIFY_URL":    tc.upstream.URL() + "/siteverify",
		"OPMODE_HEALTH_URL":     tc.upstream.URL() + "/health",
		"OPMODE_SIGNING_KEY":    "e2e-signing-key-0123456789abcdef",
		"OPMODE_PRIMARY_NUMBER": "+15550000001",
		"OPMODE_RESERVE_NUMBER": "+15550000002",
		"OPMODE_VERDICT_TTL":    "1ns",
		"CRM_BASE_URL":          tc.upstream.URL() + "/crm",
		"DISPATCH_BASE_URL":     tc.upstream.URL() + "/voice",
		"DISPATCH_AGENT_ID":     "agent-e2e",
		"ADMIN_TOKEN_HASH":      hash,
	})
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := app.New(context.Background(), cfg, logger, app.WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	tc.app = a
	tc.server = httptest.NewServer(a.Router)
	tc.BaseURL = tc.server.URL
	return nil
}

// Close stops the in-process server and its stubs.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
	if tc.app != nil {
		_ = tc.app.Close()
	}
	if tc.upstream != nil {
		tc.upstream.Close()
	}
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) POSTWithHeaders(path string, body any, headers map[string]string) error {
	return tc.do(http.MethodPost, path, body, headers)
}

func (tc *TestContext) PUTWithHeaders(path string, body any, headers map[string]string) error {
	return tc.do(http.MethodPut, path, body, headers)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", tc.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// GetResponseField extracts a top-level field from the JSON response
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err == nil {
		if _, ok := data[text]; ok {
			return true
		}
	}
	return false
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte { return tc.LastResponseBody }

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(name)
}

func (tc *TestContext) SetUserAgent(ua string)   { tc.UserAgent = ua }
func (tc *TestContext) GetSavedCode() string     { return tc.SavedCode }
func (tc *TestContext) SetSavedCode(code string) { tc.SavedCode = code }
func (tc *TestContext) GetModeToken() string     { return tc.ModeToken }
func (tc *TestContext) SetModeToken(tok string)  { tc.ModeToken = tok }
func (tc *TestContext) GetOperatorToken() string { return OperatorToken }

func (tc *TestContext) SetVisitor(name, email, phone string) {
	tc.visitorName, tc.visitorEmail, tc.visitorPhone = name, email, phone
}

func (tc *TestContext) Visitor() (name, email, phone string) {
	return tc.visitorName, tc.visitorEmail, tc.visitorPhone
}

func (tc *TestContext) UpstreamHealth(result string) error {
	if tc.upstream == nil {
		return errNoUpstream
	}
	tc.upstream.SetHealth(result)
	return nil
}

func (tc *TestContext) UpstreamCRMFailing(failing bool) error {
	if tc.upstream == nil {
		return errNoUpstream
	}
	tc.upstream.SetCRMFailing(failing)
	return nil
}

func (tc *TestContext) UpstreamContacts() (int, error) {
	if tc.upstream == nil {
		return 0, errNoUpstream
	}
	return tc.upstream.Contacts(), nil
}

func (tc *TestContext) UpstreamCalls() ([]map[string]any, error) {
	if tc.upstream == nil {
		return nil, errNoUpstream
	}
	return tc.upstream.Calls(), nil
}

var errNoUpstream = errors.New("step needs the in-process stubs; unset BASE_URL")

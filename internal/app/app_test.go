package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"leadgate/internal/platform/config"
	"leadgate/pkg/testutil"
)

type AppSuite struct {
	suite.Suite
	cfg config.Server
	app *App
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	cfg, err := config.LoadFrom(map[string]string{
		"ENVIRONMENT":   "development",
		"STORE_BACKEND": "memory",
	})
	s.Require().NoError(err)
	s.cfg = cfg

	a, err := New(context.Background(), cfg, discardLogger(), WithRegistry(prometheus.NewRegistry()))
	s.Require().NoError(err)
	s.app = a
}

func (s *AppSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AppSuite) serve(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = testutil.ClientIP + ":4711"
	req.Header.Set("User-Agent", testutil.BrowserUA)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func (s *AppSuite) TestMemoryBackendStartsEveryWorker() {
	var names []string
	for _, w := range s.app.Workers {
		names = append(names, w.Name)
	}
	s.ElementsMatch([]string{"ratelimit_cleanup", "ledger_reaper"}, names)
}

func (s *AppSuite) TestOperationalRoutes() {
	s.Equal(http.StatusOK, s.serve(http.MethodGet, "/health/live", "").Code)
	s.Equal(http.StatusOK, s.serve(http.MethodGet, "/metrics", "").Code)

	rec := s.serve(http.MethodGet, "/api/forms/status", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"enabled":true}`, rec.Body.String())
}

func (s *AppSuite) TestLeadFlowWithoutExternalServices() {
	rec := s.serve(http.MethodPost, "/api/forms/lead",
		`{"name":"`+testutil.LeadName+`","email":"`+testutil.LeadEmail+`","phone":"`+testutil.LeadPhone+`"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var accepted struct {
		Code string `json:"code"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &accepted))
	s.True(strings.HasPrefix(accepted.Code, "sub_"))

	sync := `{"code":"` + accepted.Code + `","name":"` + testutil.LeadName +
		`","email":"` + testutil.LeadEmail + `","phone":"` + testutil.LeadPhone + `"}`
	s.Equal(http.StatusOK, s.serve(http.MethodPost, "/api/crm/contact", sync).Code)
	s.Equal(http.StatusForbidden, s.serve(http.MethodPost, "/api/crm/contact", sync).Code)
}

func (s *AppSuite) TestAdminRoutesRejectWithoutConfiguredHash() {
	rec := s.serve(http.MethodPut, "/admin/forms/enabled", `{"enabled":false}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AppSuite) TestRejectsNonJSONBodies() {
	req := httptest.NewRequest(http.MethodPost, "/api/forms/lead", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func (s *AppSuite) TestUnknownBackendFailsToBuild() {
	cfg := s.cfg
	cfg.StoreBackend = "sqlite"
	_, err := New(context.Background(), cfg, discardLogger(), WithRegistry(prometheus.NewRegistry()))
	s.ErrorContains(err, "unknown store backend")
}

func (s *AppSuite) TestRedisBackendRequiresConnection() {
	cfg := s.cfg
	cfg.StoreBackend = config.BackendRedis
	_, err := New(context.Background(), cfg, discardLogger(), WithRegistry(prometheus.NewRegistry()))
	s.ErrorContains(err, "REDIS_URL")
}

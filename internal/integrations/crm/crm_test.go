package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leadgate/internal/integrations/httpjson"
	"leadgate/internal/platform/config"
	"leadgate/pkg/testutil"
)

type CRMSuite struct {
	suite.Suite
	mux     *http.ServeMux
	server  *httptest.Server
	client  *HTTPClient
	created []contactPayload
	patched map[string]contactPayload
}

func TestCRMSuite(t *testing.T) {
	suite.Run(t, new(CRMSuite))
}

func (s *CRMSuite) SetupTest() {
	s.created = nil
	s.patched = map[string]contactPayload{}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST /contacts", func(w http.ResponseWriter, r *http.Request) {
		s.NotEmpty(r.Header.Get("Idempotency-Key"))
		var p contactPayload
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&p))
		s.created = append(s.created, p)
		_, _ = w.Write([]byte(`{"id":"c-new"}`))
	})
	s.mux.HandleFunc("PATCH /contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		var p contactPayload
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&p))
		s.patched[r.PathValue("id")] = p
		w.WriteHeader(http.StatusNoContent)
	})
	s.server = httptest.NewServer(s.mux)
	s.client = New(config.CRMConfig{BaseURL: s.server.URL, APIKey: "k", Timeout: time.Second}, nil)
}

func (s *CRMSuite) TearDownTest() {
	s.server.Close()
}

func (s *CRMSuite) contact() Contact {
	return Contact{Name: testutil.LeadName, Email: testutil.LeadEmail, Phone: testutil.LeadPhone, Source: "lead_form"}
}

func (s *CRMSuite) TestCreatesWhenSearchFindsNothing() {
	s.mux.HandleFunc("GET /contacts/search", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(testutil.LeadEmail, r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	res, err := s.client.UpsertContact(context.Background(), s.contact())

	s.Require().NoError(err)
	s.Equal("c-new", res.ContactID)
	s.True(res.Created)
	s.Require().Len(s.created, 1)
	s.Equal("lead_form", s.created[0].Source)
}

func (s *CRMSuite) TestUpdatesExistingContact() {
	s.mux.HandleFunc("GET /contacts/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":"c-42"}]}`))
	})

	res, err := s.client.UpsertContact(context.Background(), s.contact())

	s.Require().NoError(err)
	s.Equal("c-42", res.ContactID)
	s.False(res.Created)
	s.Empty(s.created)
	s.Equal(testutil.LeadPhone, s.patched["c-42"].Phone)
}

func (s *CRMSuite) TestSearchOutageIsReported() {
	s.mux.HandleFunc("GET /contacts/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := s.client.UpsertContact(context.Background(), s.contact())

	s.Equal(httpjson.KindOutage, httpjson.KindOf(err))
	s.Empty(s.created)
}

func (s *CRMSuite) TestLoggingClient() {
	res, err := NewLogging(nil).UpsertContact(context.Background(), s.contact())
	s.Require().NoError(err)
	s.Contains(res.ContactID, "local-")
}

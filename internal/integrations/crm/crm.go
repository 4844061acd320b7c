// Package crm upserts website contacts into the CRM.
package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"leadgate/internal/integrations/httpjson"
	"leadgate/internal/platform/config"
	"leadgate/pkg/platform/privacy"
	"leadgate/pkg/requestcontext"
)

// Contact is what the site knows about a person.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Message string
	// Source names the form the contact came through.
	Source string
}

type Result struct {
	ContactID string
	Created   bool
}

type contactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company,omitempty"`
	Message string `json:"message,omitempty"`
	Source  string `json:"source,omitempty"`
}

type searchResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

type contactResponse struct {
	ID string `json:"id"`
}

// HTTPClient searches by email, then updates the match or creates a contact.
type HTTPClient struct {
	api *httpjson.Client
}

func New(cfg config.CRMConfig, doer httpjson.HTTPDoer, opts ...httpjson.ConfigOption) *HTTPClient {
	return &HTTPClient{api: httpjson.New(httpjson.Config{
		Name:       "crm",
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Timeout:    cfg.Timeout,
		HTTPClient: doer,
	}, opts...)}
}

func (c *HTTPClient) UpsertContact(ctx context.Context, contact Contact) (*Result, error) {
	payload := contactPayload(contact)

	existing, err := c.findByEmail(ctx, contact.Email)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		err := c.api.Do(ctx, httpjson.Request{
			Method: http.MethodPatch,
			Path:   "/contacts/" + url.PathEscape(existing),
			Body:   payload,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("update contact: %w", err)
		}
		return &Result{ContactID: existing}, nil
	}

	var created contactResponse
	err = c.api.Do(ctx, httpjson.Request{
		Method:  http.MethodPost,
		Path:    "/contacts",
		Body:    payload,
		Headers: map[string]string{"Idempotency-Key": uuid.NewString()},
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("create contact: %w", &httpjson.Error{Kind: httpjson.KindBadData, Upstream: "crm", Message: "missing contact id"})
	}
	return &Result{ContactID: created.ID, Created: true}, nil
}

func (c *HTTPClient) findByEmail(ctx context.Context, email string) (string, error) {
	var found searchResponse
	err := c.api.Do(ctx, httpjson.Request{
		Method: http.MethodGet,
		Path:   "/contacts/search?email=" + url.QueryEscape(email),
	}, &found)
	if httpjson.KindOf(err) == httpjson.KindNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("search contact: %w", err)
	}
	for _, r := range found.Results {
		if r.ID != "" {
			return r.ID, nil
		}
	}
	return "", nil
}

// LoggingClient stands in when no CRM is configured.
type LoggingClient struct {
	logger *slog.Logger
}

func NewLogging(logger *slog.Logger) *LoggingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingClient{logger: logger}
}

func (c *LoggingClient) UpsertContact(ctx context.Context, contact Contact) (*Result, error) {
	if contact.Email == "" {
		return nil, errors.New("contact email is required")
	}
	id := "local-" + uuid.NewString()
	c.logger.InfoContext(ctx, "crm_contact_logged",
		"request_id", requestcontext.RequestID(ctx),
		"contact_id", id,
		"email", privacy.MaskEmail(contact.Email),
		"source", contact.Source,
	)
	return &Result{ContactID: id, Created: true}, nil
}

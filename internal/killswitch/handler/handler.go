package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/platform/middleware/admin"
	"leadgate/pkg/requestcontext"
	"leadgate/pkg/validation"
)

type Service interface {
	IsEnabled(ctx context.Context) bool
	SetEnabled(ctx context.Context, enabled bool, actor string) error
}

// SetEnabledRequest is the body of PUT /admin/forms/enabled.
type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (r *SetEnabledRequest) Validate() error {
	return validation.Validate(r)
}

// StatusResponse reports whether submissions are accepted.
type StatusResponse struct {
	Enabled bool `json:"enabled"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public status route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/forms/status", h.HandleStatus)
}

// RegisterAdmin mounts the toggle. The caller wraps r in the operator gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/forms/enabled", h.HandleSetEnabled)
}

// HandleStatus implements GET /api/forms/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Enabled: h.service.IsEnabled(r.Context())})
}

// HandleSetEnabled implements PUT /admin/forms/enabled.
//
// Input: { "enabled": false }
// Output: { "enabled": false }
func (h *Handler) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, 4*1024)

	req, ok := httputil.DecodeAndPrepare[SetEnabledRequest](w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.SetEnabled(ctx, *req.Enabled, admin.Operator(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "failed to toggle forms",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Enabled: *req.Enabled})
}

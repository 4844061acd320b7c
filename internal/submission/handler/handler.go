package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leadgate/internal/opmode"
	"leadgate/internal/submission/models"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/requestcontext"
)

const maxBodyBytes = 16 * 1024

type Service interface {
	CheckEnabled(ctx context.Context) error
	SubmitLead(ctx context.Context, req *models.LeadRequest, meta models.ClientMeta) (*models.SubmissionResult, error)
	SubmitCallRequest(ctx context.Context, req *models.CallRequest, meta models.ClientMeta) (*models.SubmissionResult, error)
	SyncContact(ctx context.Context, req *models.ContactSyncRequest) (*models.ContactResult, error)
	DispatchCall(ctx context.Context, req *models.DispatchRequest, modeToken string) (*models.DispatchResult, error)
	ResolveMode(ctx context.Context, modeToken string) (opmode.Mode, string, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/forms/lead", h.HandleLead)
	r.Post("/api/forms/call-request", h.HandleCallRequest)
	r.Post("/api/crm/contact", h.HandleContactSync)
	r.Post("/api/calls/dispatch", h.HandleDispatch)
	r.Get("/api/calls/mode", h.HandleMode)
}

// HandleLead implements POST /api/forms/lead.
//
// Output: { "status": "ok", "code": "sub_...", "expires_at": "..." }
func (h *Handler) HandleLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.accepting(ctx, w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, ok := httputil.DecodeAndPrepare[models.LeadRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.SubmitLead(ctx, req, clientMeta(ctx))
	if err != nil {
		h.fail(ctx, w, "lead submission rejected", err)
		return
	}
	writeSubmission(w, res)
}

// HandleCallRequest implements POST /api/forms/call-request.
func (h *Handler) HandleCallRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.accepting(ctx, w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, ok := httputil.DecodeAndPrepare[models.CallRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.SubmitCallRequest(ctx, req, clientMeta(ctx))
	if err != nil {
		h.fail(ctx, w, "call request rejected", err)
		return
	}
	writeSubmission(w, res)
}

// HandleContactSync implements POST /api/crm/contact.
func (h *Handler) HandleContactSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.accepting(ctx, w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, ok := httputil.DecodeAndPrepare[models.ContactSyncRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.SyncContact(ctx, req)
	if err != nil {
		h.fail(ctx, w, "contact sync failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ContactResponse{
		Status:    models.StatusOK,
		ContactID: res.ContactID,
	})
}

// HandleDispatch implements POST /api/calls/dispatch. The refreshed mode
// token is returned in X-Mode-Token.
func (h *Handler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.accepting(ctx, w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, ok := httputil.DecodeAndPrepare[models.DispatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	res, err := h.service.DispatchCall(ctx, req, r.Header.Get(opmode.HeaderModeToken))
	if err != nil {
		h.fail(ctx, w, "call dispatch failed", err)
		return
	}
	if res.ModeToken != "" {
		w.Header().Set(opmode.HeaderModeToken, res.ModeToken)
	}
	httputil.WriteJSON(w, http.StatusOK, models.DispatchResponse{
		Status: models.StatusOK,
		CallID: res.CallID,
		Mode:   res.Mode,
	})
}

// HandleMode implements GET /api/calls/mode.
func (h *Handler) HandleMode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mode, token, err := h.service.ResolveMode(ctx, r.Header.Get(opmode.HeaderModeToken))
	if err != nil {
		h.fail(ctx, w, "mode resolution failed", err)
		return
	}
	if token != "" {
		w.Header().Set(opmode.HeaderModeToken, token)
	}
	httputil.WriteJSON(w, http.StatusOK, models.ModeResponse{Mode: string(mode)})
}

// accepting consults the kill-switch before the body is read, so a disabled
// form answers 503 whatever the payload.
func (h *Handler) accepting(ctx context.Context, w http.ResponseWriter) bool {
	if err := h.service.CheckEnabled(ctx); err != nil {
		h.fail(ctx, w, "submissions disabled", err)
		return false
	}
	return true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.InfoContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

func clientMeta(ctx context.Context) models.ClientMeta {
	return models.ClientMeta{
		IP:        requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
}

// Decoy and real results are written identically.
func writeSubmission(w http.ResponseWriter, res *models.SubmissionResult) {
	httputil.WriteJSON(w, http.StatusOK, models.SubmissionResponse{
		Status:    models.StatusOK,
		Code:      res.Code,
		ExpiresAt: res.ExpiresAt,
	})
}

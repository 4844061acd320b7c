package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/requestcontext"
)

var (
	errEmptyBody    = dErrors.New(dErrors.CodeBadRequest, "request body is required")
	errInvalidBody  = dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	errTrailingData = dErrors.New(dErrors.CodeBadRequest, "request body must be a single JSON object")
	errBodyTooLarge = dErrors.New(dErrors.CodePayloadTooLarge, "request body too large")
)

// DecodeJSON reads exactly one JSON value into a T. Handlers cap the body
// with http.MaxBytesReader first; hitting that cap answers 413. On failure a
// response has been written and ok is false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(&req)
	if err == nil && dec.More() {
		err = errTrailingData
	}
	if err == nil {
		return &req, true
	}

	ctx := r.Context()
	logger.WarnContext(ctx, "request_decode_failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, errBodyTooLarge)
	case errors.Is(err, io.EOF):
		WriteError(w, errEmptyBody)
	case errors.Is(err, errTrailingData):
		WriteError(w, errTrailingData)
	default:
		WriteError(w, errInvalidBody)
	}
	return nil, false
}

type Validatable interface {
	Validate() error
}

type Normalizable interface {
	Normalize()
}

// PrepareRequest runs Normalize before Validate so validation sees the
// canonical email and phone.
func PrepareRequest(req any) error {
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare is DecodeJSON followed by PrepareRequest. Plain validation
// errors are reported as validation_failed.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger)
	if !ok {
		return nil, false
	}

	err := PrepareRequest(req)
	if err == nil {
		return req, true
	}

	ctx := r.Context()
	logger.WarnContext(ctx, "request_invalid",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		err = dErrors.New(dErrors.CodeValidation, err.Error())
	}
	WriteError(w, err)
	return nil, false
}

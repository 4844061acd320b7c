package domainerrors

import "errors"

// Code names what went wrong in submission terms. httputil owns the mapping
// to HTTP statuses.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodePayloadTooLarge    Code = "payload_too_large"

	// Submission integrity codes
	CodeRateLimited        Code = "rate_limited"        // A keyed sliding-window limiter is exhausted
	CodeBlocked            Code = "blocked"             // Hard block (honeypot)
	CodeVerificationFailed Code = "verification_failed" // CAPTCHA missing or rejected
	CodeNotAuthorized      Code = "not_authorized"      // Ledger code missing, expired, mismatched or consumed
	CodeUnavailable        Code = "unavailable"         // Submissions disabled by the kill-switch
	CodeBadGateway         Code = "bad_gateway"         // Upstream write (CRM, dispatch) failed
	CodeUpstreamRejected   Code = "upstream_rejected"   // Upstream refused the write; repeating it cannot succeed
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by code, so errors.Is(err, ErrFormsDisabled) holds for any
// CodeUnavailable error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap keeps the code of an inner domain error; code applies only to foreign errors.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the domain code carried by err, or CodeInternal when err is
// not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Retryable reports whether the visitor may repeat the same request unchanged
// and reasonably expect a different outcome. Ledger rejections and blocks are
// final; a failed CAPTCHA needs a fresh token, so it counts as retryable.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeVerificationFailed, CodeBadGateway, CodeTimeout, CodeRateLimited:
		return true
	default:
		return false
	}
}

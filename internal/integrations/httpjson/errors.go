package httpjson

import (
	"errors"
	"fmt"
)

// Kind classifies an upstream failure.
type Kind string

const (
	KindTimeout        Kind = "timeout"
	KindOutage         Kind = "outage"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindRateLimited    Kind = "rate_limited"
	KindRejected       Kind = "rejected"
	KindBadData        Kind = "bad_data"
	KindInternal       Kind = "internal"
)

// Error is returned for every failed upstream call.
type Error struct {
	Kind     Kind
	Upstream string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Upstream, e.Kind, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether a later attempt could succeed.
func (e *Error) IsRetryable() bool {
	switch e.Kind {
	case KindTimeout, KindOutage, KindRateLimited:
		return true
	default:
		return false
	}
}

// KindOf returns the failure kind, or "" for non-upstream errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

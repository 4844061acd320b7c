package models

import "time"

// Sources name the form a contact came through.
const (
	SourceLeadForm    = "lead_form"
	SourceCallRequest = "call_request"
)

// ClientMeta is what the transport knows about the caller.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// SubmissionResult is returned by both primary endpoints. Decoy results are
// shaped identically and never persisted.
type SubmissionResult struct {
	Code      string
	ExpiresAt time.Time
	Decoy     bool
}

type ContactResult struct {
	ContactID string
	Created   bool
}

type DispatchResult struct {
	CallID    string
	Mode      string
	ModeToken string
}

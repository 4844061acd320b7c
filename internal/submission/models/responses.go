package models

import "time"

const StatusOK = "ok"

type SubmissionResponse struct {
	Status    string    `json:"status"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ContactResponse struct {
	Status    string `json:"status"`
	ContactID string `json:"contact_id"`
}

type DispatchResponse struct {
	Status string `json:"status"`
	CallID string `json:"call_id"`
	Mode   string `json:"mode"`
}

type ModeResponse struct {
	Mode string `json:"mode"`
}

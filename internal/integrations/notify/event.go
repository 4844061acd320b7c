// Package notify delivers fire-and-forget notifications about submissions.
package notify

import (
	"context"
	"time"
)

// Channel groups notifications by audience.
type Channel string

const (
	// ChannelHotLead receives accepted call requests.
	ChannelHotLead Channel = "hot_lead"
	// ChannelTrash receives advisory-flagged submissions.
	ChannelTrash Channel = "trash"
	// ChannelOps receives operational alerts such as reserve-mode switches.
	ChannelOps Channel = "ops"
)

// Event is one notification.
type Event struct {
	Channel    Channel           `json:"channel"`
	Type       string            `json:"type"`
	Summary    string            `json:"summary"`
	Fields     map[string]string `json:"fields,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Sink delivers an event to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

package events

import (
	"context"
	"time"
)

// Transition is the audit record emitted for every committed booking
// change, including creation.
type Transition struct {
	BookingID  string    `json:"booking_id"`
	OwnerID    string    `json:"resource_owner_id"`
	ResourceID string    `json:"resource_id"`
	Event      string    `json:"event"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	At         time.Time `json:"at"`
}

// Publisher delivers transition records to an audit sink. Publish is
// called after the ledger write commits and must not hold up the caller.
type Publisher interface {
	Publish(ctx context.Context, t Transition) error
	Close() error
}

// NopPublisher drops every record. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Transition) error { return nil }

func (NopPublisher) Close() error { return nil }

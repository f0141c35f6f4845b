package audit

import "time"

// Event is an immutable, append-only audit record of a service_role request
// that acted on behalf of a user.
//
// Invariants:
// - Events are never updated or deleted.
// - on_behalf_of is required; an event without a target user is not a delegation.
// - Audit is best-effort and never changes the response a caller gets.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	Function string `json:"function"`
	Command  string `json:"command,omitempty"`

	ActorRole  string `json:"actor_role"`
	OnBehalfOf string `json:"on_behalf_of"`

	// IPAddress is the resolved client IP.
	IPAddress string `json:"ip_address,omitempty"`

	// Status is the HTTP status returned to the caller.
	Status int `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const EventTypeDelegatedCall EventType = "delegated_call"

package events

import "time"

// Event type codes published on the bus. The NATS subject is the code
// prefixed with "events." (see pkg/nats).
const (
	TypeSessionStarted  = "session.started"
	TypeSessionEnded    = "session.ended"
	TypeDocumentUpdated = "document.updated"
)

// Event is the contract for everything crossing the event bus.
type Event interface {
	// EventType returns the code for this event (e.g. "session.started").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation services publish; construct it inline
// with the type code, payload map and occurrence time.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

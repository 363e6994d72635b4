// Package store holds the in-memory shapes shared between the live session
// registry and the services that consult it.
package store

import "time"

// Live session registry states.
const (
	StateActive = "ACTIVE"
	StateEnded  = "ENDED"
)

// LiveSession is the registry entry for one in-flight capture session. It is
// bookkeeping only: the owning goroutine holds the real session state, this
// record exists so REST lookups and the document lock can see what is live on
// this instance.
type LiveSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session status values persisted on thinking_sessions rows.
const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

// Roles recorded on conversation_turns rows.
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// ThinkingSession is one capture session's durable record. Transcript is
// written incrementally by the persistence worker and finalized on end.
type ThinkingSession struct {
	Id         uuid.UUID
	UserId     string
	DocumentId uuid.UUID
	Status     string
	Transcript string
	StartedAt  time.Time
	EndedAt    *time.Time
}

// ConversationTurn is one message of a session's user/assistant exchange,
// listed in insertion order.
type ConversationTurn struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

package dto

import (
	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"github.com/google/uuid"
)

// Persistence message kinds carried on the in-process work queue.
const (
	PersistKindTurnPair   = "turn_pair"
	PersistKindDocument   = "document"
	PersistKindSessionEnd = "session_end"
)

// PersistSessionMessage is the payload the session engine hands off to the
// persistence worker. Kind selects which fields are meaningful: turn_pair
// carries UserText/ReplyText, document carries Sections/Markdown, session_end
// carries Transcript.
type PersistSessionMessage struct {
	Kind       string                `json:"kind"`
	SessionId  uuid.UUID             `json:"session_id"`
	DocumentId uuid.UUID             `json:"document_id"`
	UserId     string                `json:"user_id"`
	UserText   string                `json:"user_text,omitempty"`
	ReplyText  string                `json:"reply_text,omitempty"`
	Sections   []outline.SectionData `json:"sections,omitempty"`
	Markdown   string                `json:"markdown,omitempty"`
	Transcript string                `json:"transcript,omitempty"`
}

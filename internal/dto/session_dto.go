package dto

import (
	"time"

	"github.com/google/uuid"
)

type ShowSessionResponse struct {
	Id         uuid.UUID  `json:"id"`
	DocumentId uuid.UUID  `json:"document_id"`
	Status     string     `json:"status"`
	Transcript string     `json:"transcript"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at"`
}

type SessionTurnResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

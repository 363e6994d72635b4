package dto

import (
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type CreateDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type DocumentSummaryResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ShowDocumentResponse struct {
	Id        uuid.UUID             `json:"id"`
	Title     string                `json:"title"`
	Sections  []outline.SectionData `json:"sections"`
	Markdown  string                `json:"markdown"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt *time.Time            `json:"updated_at"`
}

type ShareDocumentRequest struct {
	Id uuid.UUID
	To string `json:"to" validate:"required,email"`
}

type ShareDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	SentTo string    `json:"sent_to"`
}

type ExportDocumentResponse struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
}

type DocumentVersionResponse struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

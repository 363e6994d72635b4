package entity

import (
	"time"

	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"github.com/google/uuid"
)

// Document is one captured outline: the structured sections plus the rendered
// markdown projection kept alongside for cheap reads and export.
type Document struct {
	Id              uuid.UUID
	UserId          string
	Title           string
	Sections        []outline.SectionData
	ContentMarkdown string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// DocumentVersion snapshots the state a document had before an update. Version
// numbers start at 1 and grow monotonically per document.
type DocumentVersion struct {
	Id              uuid.UUID
	DocumentId      uuid.UUID
	Version         int
	Sections        []outline.SectionData
	ContentMarkdown string
	CreatedAt       time.Time
}

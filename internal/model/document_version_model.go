package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DocumentVersion struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId      uuid.UUID      `gorm:"type:uuid;not null;index:idx_document_versions_doc_version,priority:1"`
	Version         int            `gorm:"not null;index:idx_document_versions_doc_version,priority:2"`
	Content         datatypes.JSON `gorm:"type:jsonb"`
	ContentMarkdown string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (DocumentVersion) TableName() string {
	return "document_versions"
}

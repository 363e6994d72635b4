package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId          string         `gorm:"type:varchar(255);not null;index"`
	Title           string         `gorm:"type:varchar(255);not null"`
	Content         datatypes.JSON `gorm:"type:jsonb"`
	ContentMarkdown string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

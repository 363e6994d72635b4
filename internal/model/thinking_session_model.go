package model

import (
	"time"

	"github.com/google/uuid"
)

type ThinkingSession struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId     string     `gorm:"type:varchar(255);not null;index"`
	DocumentId uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status     string     `gorm:"type:varchar(20);not null;default:'active'"`
	Transcript string     `gorm:"type:text"`
	StartedAt  time.Time  `gorm:"autoCreateTime"`
	EndedAt    *time.Time `gorm:""`
}

func (ThinkingSession) TableName() string {
	return "thinking_sessions"
}

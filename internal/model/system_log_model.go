package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog is one audit row written by the events consumer: the event type,
// the subject it arrived on, and the full payload for later inspection.
type SystemLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Level     string         `gorm:"type:varchar(20);not null;index"`
	Subject   string         `gorm:"type:varchar(100);not null;index"`
	EventType string         `gorm:"type:varchar(100);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:now();not null;index"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}

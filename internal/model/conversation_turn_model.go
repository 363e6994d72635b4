package model

import (
	"time"

	"github.com/google/uuid"
)

type ConversationTurn struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role      string    `gorm:"type:varchar(50);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

package mapper

import (
	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/model"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.ThinkingSession) *entity.ThinkingSession {
	if s == nil {
		return nil
	}
	return &entity.ThinkingSession{
		Id:         s.Id,
		UserId:     s.UserId,
		DocumentId: s.DocumentId,
		Status:     s.Status,
		Transcript: s.Transcript,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.ThinkingSession) *model.ThinkingSession {
	if s == nil {
		return nil
	}
	return &model.ThinkingSession{
		Id:         s.Id,
		UserId:     s.UserId,
		DocumentId: s.DocumentId,
		Status:     s.Status,
		Transcript: s.Transcript,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
	}
}

func (m *SessionMapper) TurnToEntity(t *model.ConversationTurn) *entity.ConversationTurn {
	if t == nil {
		return nil
	}
	return &entity.ConversationTurn{
		Id:        t.Id,
		SessionId: t.SessionId,
		Role:      t.Role,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func (m *SessionMapper) TurnToModel(t *entity.ConversationTurn) *model.ConversationTurn {
	if t == nil {
		return nil
	}
	return &model.ConversationTurn{
		Id:        t.Id,
		SessionId: t.SessionId,
		Role:      t.Role,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func (m *SessionMapper) TurnsToEntities(turns []*model.ConversationTurn) []*entity.ConversationTurn {
	entities := make([]*entity.ConversationTurn, len(turns))
	for i, t := range turns {
		entities[i] = m.TurnToEntity(t)
	}
	return entities
}

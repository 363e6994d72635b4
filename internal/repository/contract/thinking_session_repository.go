package contract

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"
)

type ThinkingSessionRepository interface {
	Create(ctx context.Context, session *entity.ThinkingSession) error
	Update(ctx context.Context, session *entity.ThinkingSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ThinkingSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ThinkingSession, error)
}

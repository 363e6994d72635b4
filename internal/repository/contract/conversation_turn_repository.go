package contract

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"
)

type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	CreateBatch(ctx context.Context, turns []*entity.ConversationTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error)
}

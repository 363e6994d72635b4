package unitofwork

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	DocumentVersionRepository() contract.DocumentVersionRepository
	ThinkingSessionRepository() contract.ThinkingSessionRepository
	ConversationTurnRepository() contract.ConversationTurnRepository
	SystemLogRepository() contract.SystemLogRepository
}

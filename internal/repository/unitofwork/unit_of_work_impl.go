package unitofwork

import (
	"context"
	"fmt"

	"github.com/SLatz18/thoughtsAI/internal/repository/contract"
	"github.com/SLatz18/thoughtsAI/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // active transaction; nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) DocumentRepository() contract.DocumentRepository {
	return implementation.NewDocumentRepository(u.getDB())
}

func (u *UnitOfWorkImpl) DocumentVersionRepository() contract.DocumentVersionRepository {
	return implementation.NewDocumentVersionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ThinkingSessionRepository() contract.ThinkingSessionRepository {
	return implementation.NewThinkingSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConversationTurnRepository() contract.ConversationTurnRepository {
	return implementation.NewConversationTurnRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SystemLogRepository() contract.SystemLogRepository {
	return implementation.NewSystemLogRepository(u.getDB())
}

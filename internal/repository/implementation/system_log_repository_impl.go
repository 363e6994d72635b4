package implementation

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/internal/repository/contract"

	"gorm.io/gorm"
)

type SystemLogRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemLogRepository(db *gorm.DB) contract.SystemLogRepository {
	return &SystemLogRepositoryImpl{db: db}
}

func (r *SystemLogRepositoryImpl) Create(ctx context.Context, log *model.SystemLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

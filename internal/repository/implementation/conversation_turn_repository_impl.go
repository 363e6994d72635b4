package implementation

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/mapper"
	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/internal/repository/contract"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"

	"gorm.io/gorm"
)

type ConversationTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewConversationTurnRepository(db *gorm.DB) contract.ConversationTurnRepository {
	return &ConversationTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *ConversationTurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationTurnRepositoryImpl) Create(ctx context.Context, turn *entity.ConversationTurn) error {
	m := r.mapper.TurnToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.TurnToEntity(m)
	return nil
}

func (r *ConversationTurnRepositoryImpl) CreateBatch(ctx context.Context, turns []*entity.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	models := make([]*model.ConversationTurn, len(turns))
	for i, t := range turns {
		models[i] = r.mapper.TurnToModel(t)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*turns[i] = *r.mapper.TurnToEntity(m)
	}
	return nil
}

func (r *ConversationTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error) {
	var models []*model.ConversationTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.TurnsToEntities(models), nil
}

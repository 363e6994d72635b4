package implementation

import (
	"context"
	"errors"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/mapper"
	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/internal/repository/contract"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"

	"gorm.io/gorm"
)

type ThinkingSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewThinkingSessionRepository(db *gorm.DB) contract.ThinkingSessionRepository {
	return &ThinkingSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *ThinkingSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ThinkingSessionRepositoryImpl) Create(ctx context.Context, session *entity.ThinkingSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *ThinkingSessionRepositoryImpl) Update(ctx context.Context, session *entity.ThinkingSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *ThinkingSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ThinkingSession, error) {
	var m model.ThinkingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ThinkingSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ThinkingSession, error) {
	var models []*model.ThinkingSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ThinkingSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

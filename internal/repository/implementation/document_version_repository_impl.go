package implementation

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/mapper"
	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/internal/repository/contract"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentVersionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentVersionRepository(db *gorm.DB) contract.DocumentVersionRepository {
	return &DocumentVersionRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentVersionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentVersionRepositoryImpl) Create(ctx context.Context, version *entity.DocumentVersion) error {
	m := r.mapper.VersionToModel(version)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*version = *r.mapper.VersionToEntity(m)
	return nil
}

func (r *DocumentVersionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentVersion, error) {
	var models []*model.DocumentVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.VersionsToEntities(models), nil
}

func (r *DocumentVersionRepositoryImpl) LatestVersion(ctx context.Context, documentId uuid.UUID) (int, error) {
	var latest int
	err := r.db.WithContext(ctx).
		Model(&model.DocumentVersion{}).
		Where("document_id = ?", documentId).
		Select("COALESCE(MAX(version), 0)").
		Scan(&latest).Error
	if err != nil {
		return 0, err
	}
	return latest, nil
}

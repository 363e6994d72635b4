package contract

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentVersionRepository interface {
	Create(ctx context.Context, version *entity.DocumentVersion) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentVersion, error)
	// LatestVersion returns the highest version number recorded for the
	// document, 0 when none exist yet.
	LatestVersion(ctx context.Context, documentId uuid.UUID) (int, error)
}

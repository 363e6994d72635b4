package contract

import (
	"context"

	"github.com/SLatz18/thoughtsAI/internal/model"
)

// SystemLogRepository persists audit rows. It takes the model directly: audit
// rows are write-only plumbing with no domain behavior to map.
type SystemLogRepository interface {
	Create(ctx context.Context, log *model.SystemLog) error
}

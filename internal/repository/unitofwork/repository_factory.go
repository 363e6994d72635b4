package unitofwork

import "context"

// RepositoryFactory hands out short-lived units of work, one per logical
// write: the persistence worker opens one per consumed message.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}

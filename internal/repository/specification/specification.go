package specification

import "gorm.io/gorm"

// Specification is one composable query predicate. Repositories chain any
// number of them onto a base query, so read paths state intent (ByID,
// DocumentOwnedBy, OrderBy) instead of assembling SQL inline.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base holds the GORM handle shared by feature repositories that do not
// need the WithTx forking the transactional repos use.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to the request context so query cancellation
// follows the caller.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

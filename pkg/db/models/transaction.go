package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/pkg/enums"
)

// Transaction is an append-only ledger entry for a wallet movement.
// Rows are never updated or deleted; corrections are new rows (a
// refund is a refund-kind transaction, not an edit).
type Transaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromUser  *uuid.UUID            `gorm:"column:from_user;type:uuid;index"`
	ToUser    *uuid.UUID            `gorm:"column:to_user;type:uuid;index"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	Kind      enums.TransactionKind `gorm:"column:kind;not null"`
	OrderID   *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/pkg/enums"
)

// SettlementAttempt records one checkout attempt keyed by the
// client-supplied attempt token. Inserting the row is the first step of
// settlement, so a duplicate token fails the unique constraint and the
// caller gets the prior outcome instead of a second debit.
type SettlementAttempt struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	Status     enums.SettlementStatus `gorm:"column:status;not null;default:pending"`
	OrderID    *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Total      decimal.Decimal        `gorm:"column:total;type:numeric(14,2);not null;default:0"`
	FailReason *string                `gorm:"column:fail_reason"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

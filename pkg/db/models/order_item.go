package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/pkg/enums"
)

// OrderItem snapshots a single line of an order. Name and price are
// copied from the catalog row at purchase time.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID          uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	ItemType        enums.ItemType  `gorm:"column:item_type;not null"`
	Name            string          `gorm:"column:name;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	PriceAtPurchase decimal.Decimal `gorm:"column:price_at_purchase;type:numeric(14,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

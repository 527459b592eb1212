package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/pkg/enums"
	"github.com/petverse/petverse-backend/pkg/types"
)

// Order is a snapshot of a settled checkout. The monetary columns and
// items are frozen at settlement time; later catalog edits never touch
// an order. Only Status moves after creation, and only forward.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;uniqueIndex;not null"`
	CustomerID    uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	SellerID      uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:pending"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:pending"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Shipping      types.Address       `gorm:"column:shipping;type:jsonb;not null"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(14,2);not null"`
	ShippingFee   decimal.Decimal     `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	Tax           decimal.Decimal     `gorm:"column:tax;type:numeric(14,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(14,2);not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

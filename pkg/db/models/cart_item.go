package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/petverse/petverse-backend/pkg/enums"
)

// CartItem is one (item, quantity) line within a cart. A unique index on
// (cart_id, item_id) guarantees at most one entry per referenced item;
// repeated adds merge quantities instead.
type CartItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_item,priority:1"`
	ItemID    uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_item,priority:2"`
	ItemType  enums.ItemType `gorm:"column:item_type;type:item_type;not null"`
	Quantity  int            `gorm:"column:quantity;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

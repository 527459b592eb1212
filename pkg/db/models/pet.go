package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Pet is an adoption/sale listing. A pet is a single animal, so instead
// of a stock counter it carries an availability flag that settlement
// flips with a conditional update.
type Pet struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Name            string          `gorm:"column:name;not null"`
	Species         string          `gorm:"column:species;not null"`
	Breed           *string         `gorm:"column:breed"`
	AgeMonths       *int            `gorm:"column:age_months"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Tags            pq.StringArray  `gorm:"column:tags;type:text[]"`
	Available       bool            `gorm:"column:available;not null;default:true"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

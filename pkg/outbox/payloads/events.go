package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/pkg/enums"
)

// OrderSettledEvent signals a checkout that debited the buyer and split
// the funds between seller and platform.
type OrderSettledEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Total       decimal.Decimal `json:"total"`
	SellerShare decimal.Decimal `json:"seller_share"`
	Commission  decimal.Decimal `json:"commission"`
	SettledAt   time.Time       `json:"settled_at"`
}

// OrderStatusChangedEvent is emitted on every forward status transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	SellerID   uuid.UUID         `json:"seller_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// SettlementCompensatedEvent reports a refund issued after a post-debit
// stock failure.
type SettlementCompensatedEvent struct {
	AttemptID  uuid.UUID       `json:"attempt_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	RefundedAt time.Time       `json:"refunded_at"`
}

// WalletTopupEvent is emitted when funds are added to a wallet.
type WalletTopupEvent struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Amount   decimal.Decimal `json:"amount"`
	ToppedAt time.Time       `json:"topped_at"`
}

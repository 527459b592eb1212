package enums

import "fmt"

// OutboxAggregateType names the aggregate an outbox event references.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateWallet      OutboxAggregateType = "wallet"
	AggregateTransaction OutboxAggregateType = "transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWallet,
	AggregateTransaction,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names the domain events shipped through the outbox.
type OutboxEventType string

const (
	EventOrderSettled          OutboxEventType = "order_settled"
	EventOrderStatusChanged    OutboxEventType = "order_status_changed"
	EventSettlementCompensated OutboxEventType = "settlement_compensated"
	EventWalletTopup           OutboxEventType = "wallet_topup"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderSettled,
	EventOrderStatusChanged,
	EventSettlementCompensated,
	EventWalletTopup,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

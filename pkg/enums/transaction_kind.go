package enums

import "fmt"

// TransactionKind classifies a single wallet-to-wallet fund movement.
type TransactionKind string

const (
	TransactionKindSellerShare TransactionKind = "seller_share"
	TransactionKindCommission  TransactionKind = "commission"
	TransactionKindRefund      TransactionKind = "refund"
	TransactionKindTopup       TransactionKind = "topup"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindSellerShare,
	TransactionKindCommission,
	TransactionKindRefund,
	TransactionKindTopup,
}

// String implements fmt.Stringer.
func (t TransactionKind) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionKind.
func (t TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts raw input into a TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}

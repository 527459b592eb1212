package enums

import "fmt"

// PaymentMethod describes how a customer intends to pay at checkout.
// Only the wallet method moves real balances; upi and credit-card are
// accepted labels recorded on the order for display.
type PaymentMethod string

const (
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCreditCard PaymentMethod = "credit-card"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodWallet,
	PaymentMethodUPI,
	PaymentMethodCreditCard,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/petverse/petverse-backend/pkg/config"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Line is one priced cart line. Quantities and discounts arrive already
// validated against the catalog; the engine only does arithmetic.
type Line struct {
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
}

// EffectivePrice is the discounted unit price for the line.
func (l Line) EffectivePrice() decimal.Decimal {
	discount := decimal.NewFromInt(1).Sub(l.DiscountPercent.Div(oneHundred))
	return l.UnitPrice.Mul(discount)
}

// Subtotal is EffectivePrice times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Quote is the fully computed price breakdown of a checkout.
type Quote struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Engine computes checkout quotes. It holds only policy constants and
// performs no I/O, so a single instance is safe to share.
type Engine struct {
	taxRate               decimal.Decimal
	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
}

// NewEngine builds a pricing engine from the configured policy.
func NewEngine(cfg config.PricingConfig) *Engine {
	return &Engine{
		taxRate:               cfg.TaxRate,
		freeShippingThreshold: cfg.FreeShippingThreshold,
		flatShippingFee:       cfg.FlatShippingFee,
	}
}

// Price computes the quote for a set of lines. Subtotal sums the
// discounted line subtotals, shipping is waived at the configured
// threshold and tax applies to the subtotal alone. Monetary results
// are rounded to two decimal places.
func (e *Engine) Price(lines []Line) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "nothing to price")
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "line price cannot be negative")
		}
		if line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(oneHundred) {
			return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "discount must be within [0,100]")
		}
		subtotal = subtotal.Add(line.Subtotal())
	}
	subtotal = subtotal.Round(2)

	shipping := e.flatShippingFee
	if subtotal.GreaterThanOrEqual(e.freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(e.taxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax)

	return Quote{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       total,
	}, nil
}

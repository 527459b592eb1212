package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/petverse/petverse-backend/pkg/config"
	pkgerrors "github.com/petverse/petverse-backend/pkg/errors"
)

func defaultEngine() *Engine {
	return NewEngine(config.PricingConfig{
		TaxRate:               decimal.RequireFromString("0.10"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
	})
}

func line(price, discount string, qty int) Line {
	return Line{
		UnitPrice:       decimal.RequireFromString(price),
		DiscountPercent: decimal.RequireFromString(discount),
		Quantity:        qty,
	}
}

func requireDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got, want)
}

func TestPriceDiscountedLine(t *testing.T) {
	// 1000 at 10% off, twice: subtotal 1800, free shipping, 10% tax
	quote, err := defaultEngine().Price([]Line{line("1000", "10", 2)})
	require.NoError(t, err)
	requireDecimal(t, quote.Subtotal, "1800")
	requireDecimal(t, quote.ShippingFee, "0")
	requireDecimal(t, quote.Tax, "180")
	requireDecimal(t, quote.Total, "1980")
}

func TestPriceBelowFreeShippingThreshold(t *testing.T) {
	quote, err := defaultEngine().Price([]Line{line("100", "0", 3)})
	require.NoError(t, err)
	requireDecimal(t, quote.Subtotal, "300")
	requireDecimal(t, quote.ShippingFee, "50")
	requireDecimal(t, quote.Tax, "30")
	requireDecimal(t, quote.Total, "380")
}

func TestPriceExactlyAtThresholdShipsFree(t *testing.T) {
	quote, err := defaultEngine().Price([]Line{line("500", "0", 1)})
	require.NoError(t, err)
	requireDecimal(t, quote.ShippingFee, "0")
}

func TestPriceJustBelowThresholdPaysShipping(t *testing.T) {
	quote, err := defaultEngine().Price([]Line{line("499.99", "0", 1)})
	require.NoError(t, err)
	requireDecimal(t, quote.ShippingFee, "50")
}

func TestPriceMixedLines(t *testing.T) {
	quote, err := defaultEngine().Price([]Line{
		line("250", "20", 1), // 200
		line("75.50", "0", 2), // 151
	})
	require.NoError(t, err)
	requireDecimal(t, quote.Subtotal, "351")
	requireDecimal(t, quote.ShippingFee, "50")
	requireDecimal(t, quote.Tax, "35.10")
	requireDecimal(t, quote.Total, "436.10")
}

func TestPriceHundredPercentDiscount(t *testing.T) {
	quote, err := defaultEngine().Price([]Line{line("999", "100", 1)})
	require.NoError(t, err)
	requireDecimal(t, quote.Subtotal, "0")
	requireDecimal(t, quote.ShippingFee, "50")
	requireDecimal(t, quote.Tax, "0")
	requireDecimal(t, quote.Total, "50")
}

func TestPriceRoundsToCents(t *testing.T) {
	// 33.33% of 9.99 leaves a repeating fraction
	quote, err := defaultEngine().Price([]Line{line("9.99", "33.33", 1)})
	require.NoError(t, err)
	requireDecimal(t, quote.Subtotal, "6.66")
	requireDecimal(t, quote.Tax, "0.67")
}

func TestPriceValidation(t *testing.T) {
	engine := defaultEngine()

	cases := map[string][]Line{
		"empty":             {},
		"zero quantity":     {line("10", "0", 0)},
		"negative quantity": {line("10", "0", -1)},
		"negative price":    {line("-10", "0", 1)},
		"discount over 100": {line("10", "101", 1)},
		"negative discount": {line("10", "-1", 1)},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.Price(lines)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
		})
	}
}

func TestZeroTaxRate(t *testing.T) {
	engine := NewEngine(config.PricingConfig{
		TaxRate:               decimal.Zero,
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
	})
	quote, err := engine.Price([]Line{line("600", "0", 1)})
	require.NoError(t, err)
	requireDecimal(t, quote.Tax, "0")
	requireDecimal(t, quote.Total, "600")
}

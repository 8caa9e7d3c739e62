package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/shared"
)

func TestValuate(t *testing.T) {
	totals, err := Valuate(Line{
		Quantity:   decimal.NewFromInt(2),
		UnitPrice:  10000,
		TaxPercent: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.Equal(t, int64(20000), totals.Net)
	require.Equal(t, int64(5000), totals.Tax)
	require.Equal(t, int64(25000), totals.Total)
}

func TestValuateFractionalQuantityRoundsNetFirst(t *testing.T) {
	// 1.5 * 333 = 499.5, rounds to 500; tax derives from the rounded net.
	totals, err := Valuate(Line{
		Quantity:   decimal.RequireFromString("1.5"),
		UnitPrice:  333,
		TaxPercent: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), totals.Net)
	require.Equal(t, int64(125), totals.Tax)
	require.Equal(t, int64(625), totals.Total)
}

func TestValuateAppliesDiscountBeforeTax(t *testing.T) {
	totals, err := Valuate(Line{
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  1000,
		Discount:   200,
		TaxPercent: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.Equal(t, int64(800), totals.Net)
	require.Equal(t, int64(200), totals.Tax)
	require.Equal(t, int64(1000), totals.Total)
}

func TestValuateZeroTaxPercent(t *testing.T) {
	totals, err := Valuate(Line{
		Quantity:  decimal.NewFromInt(3),
		UnitPrice: 100,
	})
	require.NoError(t, err)
	require.Equal(t, int64(300), totals.Net)
	require.Equal(t, int64(0), totals.Tax)
	require.Equal(t, int64(300), totals.Total)
}

func TestValuateRejectsNegativeNet(t *testing.T) {
	_, err := Valuate(Line{
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: 100,
		Discount:  200,
	})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestValuateRejectsNonPositiveQuantity(t *testing.T) {
	_, err := Valuate(Line{Quantity: decimal.Zero, UnitPrice: 100})
	require.Error(t, err)
	require.True(t, shared.IsValidation(err))
}

func TestSummarize(t *testing.T) {
	totals := Summarize([]LineTotals{
		{Net: 20000, Tax: 5000, Total: 25000},
		{Net: 800, Tax: 200, Total: 1000},
	})
	require.Equal(t, int64(20800), totals.Subtotal)
	require.Equal(t, int64(5200), totals.TaxTotal)
	require.Equal(t, int64(26000), totals.Total)
}

// Package money computes document line amounts in integer minor currency
// units (øre, cents). Quantities and tax percentages may be fractional, so
// the multiply step runs on exact decimals and is rounded to the nearest
// minor unit before anything else is derived from it: net first, then tax
// from the rounded net. That keeps every line total reconcilable to the øre.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Line carries the inputs of a single document line.
type Line struct {
	Quantity   decimal.Decimal
	UnitPrice  int64
	Discount   int64
	TaxPercent decimal.Decimal
}

// LineTotals is the valuation result for one line.
type LineTotals struct {
	Net   int64
	Tax   int64
	Total int64
}

// DocumentTotals aggregates line totals across a document.
type DocumentTotals struct {
	Subtotal int64
	TaxTotal int64
	Total    int64
}

// Valuate computes net, tax and total for a line.
func Valuate(l Line) (LineTotals, error) {
	if !l.Quantity.IsPositive() {
		return LineTotals{}, shared.Validation("quantity", "must be positive")
	}
	if l.Discount < 0 {
		return LineTotals{}, shared.Validation("discount_amount", "must not be negative")
	}
	if l.TaxPercent.IsNegative() {
		return LineTotals{}, shared.Validation("tax_rate_percent", "must not be negative")
	}

	net := l.Quantity.Mul(decimal.NewFromInt(l.UnitPrice)).Round(0).IntPart() - l.Discount
	if net < 0 {
		return LineTotals{}, shared.Validation("discount_amount", "line net amount cannot be negative")
	}

	tax := decimal.NewFromInt(net).Mul(l.TaxPercent).Div(hundred).Round(0).IntPart()

	return LineTotals{Net: net, Tax: tax, Total: net + tax}, nil
}

// Summarize sums line totals element-wise. No further rounding happens here.
func Summarize(lines []LineTotals) DocumentTotals {
	var totals DocumentTotals
	for _, l := range lines {
		totals.Subtotal += l.Net
		totals.TaxTotal += l.Tax
		totals.Total += l.Total
	}
	return totals
}

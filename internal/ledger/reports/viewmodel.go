package reports

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders integer minor units as a grouped decimal string,
// e.g. 1234567 -> "12,345.67".
func FormatAmount(minor int64) string {
	negative := minor < 0
	if negative {
		minor = -minor
	}
	out := amountPrinter.Sprintf("%d.%02d", minor/100, minor%100)
	if negative {
		return "-" + out
	}
	return out
}

// TrialBalanceView decorates the report with display strings for clients
// that render amounts verbatim.
type TrialBalanceView struct {
	TrialBalance
	TotalDebitDisplay  string `json:"total_debit_display"`
	TotalCreditDisplay string `json:"total_credit_display"`
}

// NewTrialBalanceView builds the display wrapper.
func NewTrialBalanceView(tb TrialBalance) TrialBalanceView {
	return TrialBalanceView{
		TrialBalance:       tb,
		TotalDebitDisplay:  FormatAmount(tb.TotalDebit),
		TotalCreditDisplay: FormatAmount(tb.TotalCredit),
	}
}

// AgingView decorates the aging report with display totals per bucket.
type AgingView struct {
	Aging
	TotalDisplay        string            `json:"total_display"`
	BucketTotalsDisplay map[string]string `json:"bucket_totals_display"`
}

// NewAgingView builds the display wrapper.
func NewAgingView(a Aging) AgingView {
	display := make(map[string]string, len(a.BucketTotals))
	for label, total := range a.BucketTotals {
		display[label] = FormatAmount(total)
	}
	return AgingView{
		Aging:               a,
		TotalDisplay:        FormatAmount(a.Total),
		BucketTotalsDisplay: display,
	}
}

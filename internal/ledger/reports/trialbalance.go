package reports

import (
	"time"

	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
)

// TrialBalanceRow is one account's cumulative position as of a date.
type TrialBalanceRow struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Type      accounts.AccountType `json:"type"`
	Debit     int64                `json:"debit"`
	Credit    int64                `json:"credit"`
	Balance   int64                `json:"balance"`
}

// TrialBalance is the full report. EquationBalanced flags whether
// assets + expenses equal liabilities + equity + income; a false value means
// the ledger itself is inconsistent and is surfaced, not hidden.
type TrialBalance struct {
	AsOf             time.Time                      `json:"as_of"`
	Rows             []TrialBalanceRow              `json:"rows"`
	TotalDebit       int64                          `json:"total_debit"`
	TotalCredit      int64                          `json:"total_credit"`
	TotalsByType     map[accounts.AccountType]int64 `json:"totals_by_type"`
	EquationBalanced bool                           `json:"equation_balanced"`
}

// BuildTrialBalance folds per-account journal totals into the report.
// Accounts with no movement are included with zero balances so the chart is
// always visible in full.
func BuildTrialBalance(asOf time.Time, chart []accounts.Account, totals []journal.AccountTotal) TrialBalance {
	byAccount := make(map[int64]journal.AccountTotal, len(totals))
	for _, t := range totals {
		byAccount[t.AccountID] = t
	}

	tb := TrialBalance{
		AsOf:         asOf,
		TotalsByType: make(map[accounts.AccountType]int64),
	}
	for _, a := range chart {
		t := byAccount[a.ID]
		row := TrialBalanceRow{
			AccountID: a.ID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debit:     t.Debit,
			Credit:    t.Credit,
			Balance:   naturalBalance(a.Type, t.Debit, t.Credit),
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit += row.Debit
		tb.TotalCredit += row.Credit
		tb.TotalsByType[a.Type] += row.Balance
	}

	left := tb.TotalsByType[accounts.TypeAsset] + tb.TotalsByType[accounts.TypeExpense]
	right := tb.TotalsByType[accounts.TypeLiability] + tb.TotalsByType[accounts.TypeEquity] + tb.TotalsByType[accounts.TypeIncome]
	tb.EquationBalanced = left == right
	return tb
}

// naturalBalance signs the balance by the account's normal side: debit-normal
// for assets and expenses, credit-normal for the rest.
func naturalBalance(t accounts.AccountType, debit, credit int64) int64 {
	switch t {
	case accounts.TypeAsset, accounts.TypeExpense:
		return debit - credit
	default:
		return credit - debit
	}
}

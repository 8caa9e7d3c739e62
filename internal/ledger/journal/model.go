package journal

import (
	"time"

	"github.com/google/uuid"
)

// Source tags a journal entry with the business event that produced it.
type Source string

const (
	SourceInvoiceIssue   Source = "invoice_issue"
	SourceInvoicePayment Source = "invoice_payment"
	SourceInvoiceVoid    Source = "invoice_void"
	SourceBillApprove    Source = "bill_approve"
	SourceBillPayment    Source = "bill_payment"
	SourceBillVoid       Source = "bill_void"
	SourceManual         Source = "manual"
)

// Entry is a posted, immutable journal entry. Entries are never updated or
// deleted; corrections post a reversing entry.
type Entry struct {
	ID        int64
	EntryDate time.Time
	Source    Source
	SourceRef uuid.UUID
	Memo      string
	Lines     []Line
	CreatedAt time.Time
}

// Line is a single debit or credit within an entry. Amounts are integer
// minor units; exactly one side is nonzero.
type Line struct {
	ID        int64
	EntryID   int64
	AccountID int64
	Debit     int64
	Credit    int64
}

// TotalDebit sums the debit side of the entry.
func (e Entry) TotalDebit() int64 {
	var sum int64
	for _, l := range e.Lines {
		sum += l.Debit
	}
	return sum
}

// TotalCredit sums the credit side of the entry.
func (e Entry) TotalCredit() int64 {
	var sum int64
	for _, l := range e.Lines {
		sum += l.Credit
	}
	return sum
}

// AccountTotal carries per-account debit and credit sums across a date range.
type AccountTotal struct {
	AccountID int64
	Debit     int64
	Credit    int64
}

// Filter narrows journal listings.
type Filter struct {
	Source    Source
	SourceRef uuid.UUID
	AccountID int64
	From      *time.Time
	To        *time.Time
	Limit     int
}

package reports

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects which side of the ledger an aging report covers.
type Kind string

const (
	KindReceivables Kind = "AR"
	KindPayables    Kind = "AP"
)

// Bucket labels, oldest last. Bucket boundaries are inclusive day counts
// past the due date; anything not yet due is current.
const (
	BucketCurrent = "current"
	Bucket1to30   = "1-30"
	Bucket31to60  = "31-60"
	Bucket61to90  = "61-90"
	BucketOver90  = "90+"
)

// Buckets lists the bucket labels in report order.
func Buckets() []string {
	return []string{BucketCurrent, Bucket1to30, Bucket31to60, Bucket61to90, BucketOver90}
}

// OpenItem is an unpaid document balance feeding the aging report.
type OpenItem struct {
	DocumentID uuid.UUID `json:"document_id"`
	Number     string    `json:"number"`
	PartyName  string    `json:"party_name"`
	IssueDate  time.Time `json:"issue_date"`
	DueDate    time.Time `json:"due_date"`
	Total      int64     `json:"total"`
	Balance    int64     `json:"balance"`
}

// AgingRow is an open item placed into its bucket.
type AgingRow struct {
	OpenItem
	DaysOverdue int    `json:"days_overdue"`
	Bucket      string `json:"bucket"`
}

// Aging is the bucketed open-item report for one side of the ledger.
type Aging struct {
	Kind         Kind             `json:"kind"`
	AsOf         time.Time        `json:"as_of"`
	Rows         []AgingRow       `json:"rows"`
	BucketTotals map[string]int64 `json:"bucket_totals"`
	Total        int64            `json:"total"`
}

// BuildAging buckets open items by days overdue at asOf. Items due on or
// after asOf are current; overdue days floor at whole days.
func BuildAging(kind Kind, asOf time.Time, items []OpenItem) Aging {
	report := Aging{
		Kind:         kind,
		AsOf:         asOf,
		BucketTotals: make(map[string]int64, 5),
	}
	for _, label := range Buckets() {
		report.BucketTotals[label] = 0
	}
	for _, item := range items {
		if item.Balance <= 0 {
			continue
		}
		days := daysOverdue(asOf, item.DueDate)
		row := AgingRow{OpenItem: item, DaysOverdue: days, Bucket: bucketFor(days)}
		report.Rows = append(report.Rows, row)
		report.BucketTotals[row.Bucket] += item.Balance
		report.Total += item.Balance
	}
	return report
}

func daysOverdue(asOf, due time.Time) int {
	days := int(asOf.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func bucketFor(days int) string {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket1to30
	case days <= 60:
		return Bucket31to60
	case days <= 90:
		return Bucket61to90
	default:
		return BucketOver90
	}
}

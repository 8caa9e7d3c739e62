package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusIssued        Status = "issued"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusVoid          Status = "void"
)

// Line is an invoice line with its valuation snapshot. Unit price, tax
// percent and income account are resolved and frozen at creation; later
// edits to products or tax rates never touch them.
type Line struct {
	ID              int64           `json:"id"`
	ProductID       *int64          `json:"product_id,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       int64           `json:"unit_price"`
	Discount        int64           `json:"discount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	IncomeAccountID int64           `json:"income_account_id"`
	Net             int64           `json:"net"`
	Tax             int64           `json:"tax"`
	Total           int64           `json:"total"`
}

// Invoice is a sales document. Number stays empty until issue allocates it.
type Invoice struct {
	ID           uuid.UUID `json:"id"`
	Number       string    `json:"number,omitempty"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	IssueDate    time.Time `json:"issue_date"`
	DueDate      time.Time `json:"due_date"`
	Status       Status    `json:"status"`
	Subtotal     int64     `json:"subtotal"`
	TaxTotal     int64     `json:"tax_total"`
	Total        int64     `json:"total"`
	PaidTotal    int64     `json:"paid_total"`
	Memo         string    `json:"memo,omitempty"`
	Lines        []Line    `json:"lines"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Balance is the amount still owed.
func (i Invoice) Balance() int64 {
	return i.Total - i.PaidTotal
}

// Open reports whether the invoice still accepts payments.
func (i Invoice) Open() bool {
	return i.Status == StatusIssued || i.Status == StatusPartiallyPaid
}

// paymentStatus derives the post-issue status from the paid amount.
func paymentStatus(total, paid int64) Status {
	switch {
	case paid >= total:
		return StatusPaid
	case paid > 0:
		return StatusPartiallyPaid
	default:
		return StatusIssued
	}
}

// guardTransition rejects lifecycle moves the state machine does not allow.
func guardTransition(current Status, action string) error {
	switch action {
	case "issue", "update":
		if current != StatusDraft {
			return shared.ErrInvalidState
		}
	case "pay":
		if current != StatusIssued && current != StatusPartiallyPaid {
			return shared.ErrInvalidState
		}
	case "void":
		if current == StatusVoid {
			return shared.ErrAlreadyVoid
		}
		if current == StatusPaid || current == StatusPartiallyPaid {
			return shared.ErrInvalidState
		}
	}
	return nil
}

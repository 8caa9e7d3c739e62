package bills

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Status is the bill lifecycle state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusApproved      Status = "approved"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusVoid          Status = "void"
)

// Line is a bill line with its valuation snapshot. The expense account and
// tax percent are frozen at creation.
type Line struct {
	ID               int64           `json:"id"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        int64           `json:"unit_price"`
	Discount         int64           `json:"discount"`
	TaxPercent       decimal.Decimal `json:"tax_percent"`
	ExpenseAccountID int64           `json:"expense_account_id"`
	Net              int64           `json:"net"`
	Tax              int64           `json:"tax"`
	Total            int64           `json:"total"`
}

// Bill is a purchase document. Number stays empty until approval allocates
// it.
type Bill struct {
	ID         uuid.UUID `json:"id"`
	Number     string    `json:"number,omitempty"`
	VendorID   int64     `json:"vendor_id"`
	VendorName string    `json:"vendor_name"`
	BillDate   time.Time `json:"bill_date"`
	DueDate    time.Time `json:"due_date"`
	Status     Status    `json:"status"`
	Subtotal   int64     `json:"subtotal"`
	TaxTotal   int64     `json:"tax_total"`
	Total      int64     `json:"total"`
	PaidTotal  int64     `json:"paid_total"`
	Memo       string    `json:"memo,omitempty"`
	Lines      []Line    `json:"lines"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Balance is the amount still owed to the vendor.
func (b Bill) Balance() int64 {
	return b.Total - b.PaidTotal
}

// Open reports whether the bill still accepts payments.
func (b Bill) Open() bool {
	return b.Status == StatusApproved || b.Status == StatusPartiallyPaid
}

func paymentStatus(total, paid int64) Status {
	switch {
	case paid >= total:
		return StatusPaid
	case paid > 0:
		return StatusPartiallyPaid
	default:
		return StatusApproved
	}
}

func guardTransition(current Status, action string) error {
	switch action {
	case "approve", "update":
		if current != StatusDraft {
			return shared.ErrInvalidState
		}
	case "pay":
		if current != StatusApproved && current != StatusPartiallyPaid {
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

package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Status is the sales order lifecycle state. Orders never touch the ledger;
// they become relevant to accounting only once converted into an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusInvoiced  Status = "invoiced"
	StatusVoid      Status = "void"
)

// Line is an order line with the same valuation snapshot an invoice line
// carries, so conversion copies values instead of re-resolving them.
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

// Order is a sales order document.
type Order struct {
	ID           uuid.UUID  `json:"id"`
	Number       string     `json:"number,omitempty"`
	CustomerID   int64      `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	OrderDate    time.Time  `json:"order_date"`
	Status       Status     `json:"status"`
	Subtotal     int64      `json:"subtotal"`
	TaxTotal     int64      `json:"tax_total"`
	Total        int64      `json:"total"`
	InvoiceID    *uuid.UUID `json:"invoice_id,omitempty"`
	Memo         string     `json:"memo,omitempty"`
	Lines        []Line     `json:"lines"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func guardTransition(current Status, action string) error {
	switch action {
	case "update":
		if current != StatusDraft {
			return shared.ErrInvalidState
		}
	case "confirm":
		if current != StatusDraft {
			return shared.ErrInvalidState
		}
	case "invoice":
		if current != StatusConfirmed {
			return shared.ErrInvalidState
		}
	case "void":
		if current == StatusVoid {
			return shared.ErrAlreadyVoid
		}
		if current == StatusInvoiced {
			return shared.ErrInvalidState
		}
	}
	return nil
}

package products

import "time"

// Product is a sellable item or service. UnitPrice is the net price in
// integer minor units. IncomeAccountID and DefaultTaxID are defaults that
// invoice lines may override; lines snapshot the resolved values, so later
// product edits never change posted documents.
type Product struct {
	ID              int64     `json:"id"`
	SKU             string    `json:"sku"`
	Name            string    `json:"name"`
	UnitPrice       int64     `json:"unit_price"`
	IncomeAccountID *int64    `json:"income_account_id,omitempty"`
	DefaultTaxID    *int64    `json:"default_tax_id,omitempty"`
	IsService       bool      `json:"is_service"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

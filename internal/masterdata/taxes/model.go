package taxes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax is a configurable VAT rate. Documents snapshot the percentage at
// creation time, so editing a rate never rewrites history.
type Tax struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Percent   decimal.Decimal `json:"percent"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

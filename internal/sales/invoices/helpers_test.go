package invoices

import (
	"io"
	"log/slog"

	"github.com/clouderp/simplebooks/internal/payments"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func paymentFilterFor(inv Invoice) payments.Filter {
	return payments.Filter{DocumentID: inv.ID}
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clouderp/simplebooks/internal/auth"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/masterdata/products"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/masterdata/vendors"
	"github.com/clouderp/simplebooks/internal/observability"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/purchasing/bills"
	"github.com/clouderp/simplebooks/internal/sales/invoices"
	"github.com/clouderp/simplebooks/internal/sales/orders"
	"github.com/clouderp/simplebooks/internal/shared"
	"github.com/clouderp/simplebooks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler      *auth.Handler
	CustomersHandler *customers.Handler
	VendorsHandler   *vendors.Handler
	ProductsHandler  *products.Handler
	TaxesHandler     *taxes.Handler
	InvoicesHandler  *invoices.Handler
	OrdersHandler    *orders.Handler
	BillsHandler     *bills.Handler
	PaymentsHandler  *payments.Handler
	AccountsHandler  *accounts.Handler
	JournalHandler   *journal.Handler
	ReportsHandler   *reports.Handler
	JobsHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi router with the full middleware chain and
// every mounted module.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	r.Use(RequireAuth)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	params.AuthHandler.MountRoutes(r)
	params.CustomersHandler.MountRoutes(r)
	params.VendorsHandler.MountRoutes(r)
	params.ProductsHandler.MountRoutes(r)
	params.TaxesHandler.MountRoutes(r)
	params.InvoicesHandler.MountRoutes(r)
	params.OrdersHandler.MountRoutes(r)
	params.BillsHandler.MountRoutes(r)
	params.PaymentsHandler.MountRoutes(r)
	params.AccountsHandler.MountRoutes(r)
	params.JournalHandler.MountRoutes(r)
	params.ReportsHandler.MountRoutes(r)

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/clouderp/simplebooks/internal/app"
	"github.com/clouderp/simplebooks/internal/auth"
	"github.com/clouderp/simplebooks/internal/ledger"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/masterdata/products"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/masterdata/vendors"
	"github.com/clouderp/simplebooks/internal/observability"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/platform/cache"
	"github.com/clouderp/simplebooks/internal/platform/db"
	"github.com/clouderp/simplebooks/internal/purchasing/bills"
	"github.com/clouderp/simplebooks/internal/sales/invoices"
	"github.com/clouderp/simplebooks/internal/sales/orders"
	"github.com/clouderp/simplebooks/internal/shared"
	"github.com/clouderp/simplebooks/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(pool)
	resolver := accounts.NewResolver(accountsRepo)
	if err := resolver.EnsureSystemAccounts(ctx); err != nil {
		logger.Error("system accounts not configured", slog.Any("error", err))
		os.Exit(1)
	}
	journalRepo := journal.NewRepository(pool)

	reportCache := reports.NewCache(redisClient, 10*time.Minute)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("report cache invalidation listener", slog.Any("error", err))
	}
	reportsService := reports.NewService(accountsRepo, journalRepo, reportCache)

	customersRepo := customers.NewRepository(pool)
	vendorsRepo := vendors.NewRepository(pool)
	productsRepo := products.NewRepository(pool)
	taxesRepo := taxes.NewRepository(pool)

	gate := ledger.NewGate()
	invoiceService := invoices.NewService(logger, invoices.NewRepository(pool),
		customersRepo, productsRepo, taxesRepo, resolver, gate, reportsService, metrics)
	billService := bills.NewService(logger, bills.NewRepository(pool),
		vendorsRepo, taxesRepo, resolver, gate, reportsService, metrics)
	orderService := orders.NewService(orders.NewRepository(pool), customersRepo, invoiceService, gate)

	reportsService.RegisterSource(reports.KindReceivables, invoiceService)
	reportsService.RegisterSource(reports.KindPayables, billService)

	authService := auth.NewService(auth.NewRepository(pool))
	paymentsService := payments.NewService(payments.NewRepository(pool))
	journalService := journal.NewService(journalRepo)
	accountsService := accounts.NewService(accountsRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,

		AuthHandler:      auth.NewHandler(logger, authService, sessionManager),
		CustomersHandler: customers.NewHandler(logger, customers.NewService(customersRepo)),
		VendorsHandler:   vendors.NewHandler(logger, vendors.NewService(vendorsRepo)),
		ProductsHandler:  products.NewHandler(logger, products.NewService(productsRepo)),
		TaxesHandler:     taxes.NewHandler(logger, taxes.NewService(taxesRepo)),
		InvoicesHandler:  invoices.NewHandler(logger, invoiceService),
		OrdersHandler:    orders.NewHandler(logger, orderService),
		BillsHandler:     bills.NewHandler(logger, billService),
		PaymentsHandler:  payments.NewHandler(logger, paymentsService),
		AccountsHandler:  accounts.NewHandler(logger, accountsService, journalService),
		JournalHandler:   journal.NewHandler(logger, journalService),
		ReportsHandler:   reports.NewHandler(logger, reportsService),
		JobsHandler:      jobs.NewHandler(inspector, logger),

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}

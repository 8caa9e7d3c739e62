package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/clouderp/simplebooks/internal/app"
	jobmetrics "github.com/clouderp/simplebooks/internal/jobs"
	"github.com/clouderp/simplebooks/internal/ledger"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/masterdata/products"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/masterdata/vendors"
	"github.com/clouderp/simplebooks/internal/platform/cache"
	"github.com/clouderp/simplebooks/internal/platform/db"
	"github.com/clouderp/simplebooks/internal/purchasing/bills"
	"github.com/clouderp/simplebooks/internal/sales/invoices"
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

	accountsRepo := accounts.NewRepository(pool)
	resolver := accounts.NewResolver(accountsRepo)
	journalRepo := journal.NewRepository(pool)

	reportCache := reports.NewCache(redisClient, 10*time.Minute)
	reportsService := reports.NewService(accountsRepo, journalRepo, reportCache)

	gate := ledger.NewGate()
	invoiceService := invoices.NewService(logger, invoices.NewRepository(pool),
		customers.NewRepository(pool), products.NewRepository(pool), taxes.NewRepository(pool),
		resolver, gate, reportsService, nil)
	billService := bills.NewService(logger, bills.NewRepository(pool),
		vendors.NewRepository(pool), taxes.NewRepository(pool),
		resolver, gate, reportsService, nil)
	reportsService.RegisterSource(reports.KindReceivables, invoiceService)
	reportsService.RegisterSource(reports.KindPayables, billService)

	metrics := jobmetrics.NewMetrics(nil)
	checker := jobs.NewIntegrityChecker(logger, accounts.NewService(accountsRepo), journal.NewService(journalRepo), metrics)
	warmup := jobs.NewReportWarmup(logger, reportsService, metrics)

	// Zero as-of makes the handler scan as of the run date.
	integrityTask, err := jobs.NewLedgerIntegrityTask(time.Time{})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewReportWarmupTask(time.Time{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerIntegrity, Handler: checker.Handle},
			{Type: jobs.TaskReportWarmup, Handler: warmup.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exit", slog.Any("error", err))
		os.Exit(1)
	}
}

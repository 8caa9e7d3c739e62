package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/clouderp/simplebooks/internal/jobs"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededLedger(t *testing.T) (*accounts.MemoryRepository, *journal.MemoryRepository, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	chart := accounts.NewSeededMemoryRepository()
	ids := map[string]int64{}
	all, err := chart.List(ctx)
	require.NoError(t, err)
	for _, a := range all {
		ids[a.Code] = a.ID
	}

	journalRepo := journal.NewMemoryRepository()
	entry, err := journal.Build(journal.Draft{
		EntryDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Source:    journal.SourceManual,
		Memo:      "opening position",
		Lines: []journal.DraftLine{
			{AccountID: ids["1010"], Debit: 100000},
			{AccountID: ids["3000"], Credit: 100000},
		},
	})
	require.NoError(t, err)
	_, err = journalRepo.Append(ctx, entry)
	require.NoError(t, err)
	return chart, journalRepo, ids
}

func integrityTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewLedgerIntegrityTask(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return task
}

func TestIntegrityScanPasses(t *testing.T) {
	chart, journalRepo, _ := seededLedger(t)
	checker := NewIntegrityChecker(discardLogger(), accounts.NewService(chart), journal.NewService(journalRepo),
		jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, checker.Handle(context.Background(), integrityTask(t)))
}

func TestIntegrityScanDetectsTampering(t *testing.T) {
	ctx := context.Background()
	chart, journalRepo, ids := seededLedger(t)

	// A one-sided entry can only appear through out-of-band mutation; the
	// posting path rejects it.
	_, err := journalRepo.Append(ctx, journal.Entry{
		EntryDate: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Source:    journal.SourceManual,
		Lines:     []journal.Line{{AccountID: ids["1010"], Debit: 5000}},
	})
	require.NoError(t, err)

	checker := NewIntegrityChecker(discardLogger(), accounts.NewService(chart), journal.NewService(journalRepo),
		jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.Error(t, checker.Handle(ctx, integrityTask(t)))
}

func TestReportWarmupPrimesCache(t *testing.T) {
	ctx := context.Background()
	chart, journalRepo, _ := seededLedger(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := reports.NewCache(client, time.Minute)

	reportsService := reports.NewService(chart, journalRepo, cache)
	reportsService.RegisterSource(reports.KindReceivables, staticOpenItems{})
	reportsService.RegisterSource(reports.KindPayables, staticOpenItems{})

	warmup := NewReportWarmup(discardLogger(), reportsService, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewReportWarmupTask(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, warmup.Handle(ctx, task))

	keys := mr.Keys()
	require.NotEmpty(t, keys)
}

type staticOpenItems struct{}

func (staticOpenItems) OpenItems(context.Context, time.Time) ([]reports.OpenItem, error) {
	return nil, nil
}

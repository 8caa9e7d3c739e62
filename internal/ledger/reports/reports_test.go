package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
)

var asOf = time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)

func seedLedger(t *testing.T) (*accounts.MemoryRepository, *journal.MemoryRepository, map[string]int64) {
	t.Helper()
	ctx := context.Background()
	chart := accounts.NewSeededMemoryRepository()
	ids := map[string]int64{}
	all, err := chart.List(ctx)
	require.NoError(t, err)
	for _, a := range all {
		ids[a.Code] = a.ID
	}

	journals := journal.NewMemoryRepository()
	entry, err := journal.Build(journal.Draft{
		EntryDate: asOf.AddDate(0, 0, -10),
		Source:    journal.SourceInvoiceIssue,
		SourceRef: uuid.New(),
		Lines: []journal.DraftLine{
			{AccountID: ids["1100"], Debit: 25000},
			{AccountID: ids["4000"], Credit: 20000},
			{AccountID: ids["2610"], Credit: 5000},
		},
	})
	require.NoError(t, err)
	_, err = journals.Append(ctx, entry)
	require.NoError(t, err)
	return chart, journals, ids
}

func TestTrialBalanceBalances(t *testing.T) {
	chart, journals, ids := seedLedger(t)
	service := NewService(chart, journals, NewCache(nil, 0))

	tb, err := service.TrialBalance(context.Background(), asOf)
	require.NoError(t, err)

	require.Equal(t, tb.TotalDebit, tb.TotalCredit)
	require.True(t, tb.EquationBalanced)

	byAccount := map[int64]TrialBalanceRow{}
	for _, row := range tb.Rows {
		byAccount[row.AccountID] = row
	}
	require.Equal(t, int64(25000), byAccount[ids["1100"]].Balance)
	require.Equal(t, int64(20000), byAccount[ids["4000"]].Balance)
	require.Equal(t, int64(5000), byAccount[ids["2610"]].Balance)
	require.Zero(t, byAccount[ids["1010"]].Balance)
}

func TestTrialBalanceFlagsBrokenEquation(t *testing.T) {
	chart := accounts.NewSeededMemoryRepository()
	tb := BuildTrialBalance(asOf, mustList(t, chart), []journal.AccountTotal{
		{AccountID: 1, Debit: 100, Credit: 0},
	})
	require.False(t, tb.EquationBalanced)
}

func mustList(t *testing.T, repo *accounts.MemoryRepository) []accounts.Account {
	t.Helper()
	all, err := repo.List(context.Background())
	require.NoError(t, err)
	return all
}

func TestAgingBuckets(t *testing.T) {
	items := []OpenItem{
		{Number: "INV-2026-0001", DueDate: asOf.AddDate(0, 0, 5), Balance: 1000},
		{Number: "INV-2026-0002", DueDate: asOf, Balance: 2000},
		{Number: "INV-2026-0003", DueDate: asOf.AddDate(0, 0, -15), Balance: 3000},
		{Number: "INV-2026-0004", DueDate: asOf.AddDate(0, 0, -45), Balance: 4000},
		{Number: "INV-2026-0005", DueDate: asOf.AddDate(0, 0, -75), Balance: 5000},
		{Number: "INV-2026-0006", DueDate: asOf.AddDate(0, 0, -120), Balance: 6000},
		{Number: "INV-2026-0007", DueDate: asOf.AddDate(0, 0, -120), Balance: 0},
	}

	report := BuildAging(KindReceivables, asOf, items)

	require.Len(t, report.Rows, 6)
	require.Equal(t, int64(3000), report.BucketTotals[BucketCurrent])
	require.Equal(t, int64(3000), report.BucketTotals[Bucket1to30])
	require.Equal(t, int64(4000), report.BucketTotals[Bucket31to60])
	require.Equal(t, int64(5000), report.BucketTotals[Bucket61to90])
	require.Equal(t, int64(6000), report.BucketTotals[BucketOver90])
	require.Equal(t, int64(21000), report.Total)
}

func TestAgingBucketBoundaries(t *testing.T) {
	for _, tc := range []struct {
		days   int
		bucket string
	}{
		{0, BucketCurrent},
		{1, Bucket1to30},
		{30, Bucket1to30},
		{31, Bucket31to60},
		{45, Bucket31to60},
		{60, Bucket31to60},
		{61, Bucket61to90},
		{90, Bucket61to90},
		{91, BucketOver90},
	} {
		require.Equalf(t, tc.bucket, bucketFor(tc.days), "%d days", tc.days)
	}
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "12,345.67", FormatAmount(1234567))
	require.Equal(t, "0.05", FormatAmount(5))
	require.Equal(t, "-1.00", FormatAmount(-100))
}

package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/shared"
)

var testDate = time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

func draft(lines ...DraftLine) Draft {
	return Draft{
		EntryDate: testDate,
		Source:    SourceInvoiceIssue,
		SourceRef: uuid.MustParse("5f9c1a2e-3b4d-4c5e-8f6a-7b8c9d0e1f2a"),
		Memo:      "test",
		Lines:     lines,
	}
}

func TestBuildBalancedEntry(t *testing.T) {
	e, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 25000},
		DraftLine{AccountID: 2, Credit: 20000},
		DraftLine{AccountID: 3, Credit: 5000},
	))
	require.NoError(t, err)
	require.Len(t, e.Lines, 3)
	require.Equal(t, int64(25000), e.TotalDebit())
	require.Equal(t, int64(25000), e.TotalCredit())
}

func TestBuildRejectsUnbalanced(t *testing.T) {
	_, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 25000},
		DraftLine{AccountID: 2, Credit: 24999},
	))
	require.ErrorIs(t, err, shared.ErrUnbalancedEntry)
}

func TestBuildRejectsBothSides(t *testing.T) {
	_, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 100, Credit: 100},
		DraftLine{AccountID: 2},
	))
	require.True(t, shared.IsValidation(err))
}

func TestBuildRejectsNegativeAmounts(t *testing.T) {
	_, err := Build(draft(
		DraftLine{AccountID: 1, Debit: -100},
		DraftLine{AccountID: 2, Credit: -100},
	))
	require.True(t, shared.IsValidation(err))
}

func TestBuildMergesSameAccount(t *testing.T) {
	e, err := Build(draft(
		DraftLine{AccountID: 7, Debit: 100},
		DraftLine{AccountID: 7, Debit: 150},
		DraftLine{AccountID: 8, Credit: 250},
	))
	require.NoError(t, err)
	require.Len(t, e.Lines, 2)
	require.Equal(t, int64(250), e.Lines[0].Debit)
}

func TestBuildDropsZeroLines(t *testing.T) {
	e, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 500},
		DraftLine{AccountID: 2},
		DraftLine{AccountID: 3, Credit: 500},
	))
	require.NoError(t, err)
	require.Len(t, e.Lines, 2)

	_, err = Build(draft(DraftLine{AccountID: 1}, DraftLine{AccountID: 2}))
	require.True(t, shared.IsValidation(err))
}

func TestBuildRejectsMissingAccount(t *testing.T) {
	_, err := Build(draft(DraftLine{Debit: 100}, DraftLine{AccountID: 2, Credit: 100}))
	require.True(t, shared.IsValidation(err))
}

func TestReverseCancelsEntry(t *testing.T) {
	original, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 25000},
		DraftLine{AccountID: 2, Credit: 20000},
		DraftLine{AccountID: 3, Credit: 5000},
	))
	require.NoError(t, err)

	reversal, err := Build(Reverse(original, testDate.AddDate(0, 0, 3), SourceInvoiceVoid, "void"))
	require.NoError(t, err)

	net := SumByAccount([]Entry{original, reversal})
	for accountID, balance := range net {
		require.Zerof(t, balance, "account %d should net to zero", accountID)
	}
}

func TestMemoryAppendOncePerSource(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	e, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 100},
		DraftLine{AccountID: 2, Credit: 100},
	))
	require.NoError(t, err)

	_, err = repo.Append(ctx, e)
	require.NoError(t, err)
	_, err = repo.Append(ctx, e)
	require.ErrorIs(t, err, shared.ErrDuplicate)

	payment := e
	payment.Source = SourceInvoicePayment
	_, err = repo.Append(ctx, payment)
	require.NoError(t, err)
	_, err = repo.Append(ctx, payment)
	require.NoError(t, err)
}

func TestMemoryAccountTotalsHonorsAsOf(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	early, err := Build(draft(
		DraftLine{AccountID: 1, Debit: 100},
		DraftLine{AccountID: 2, Credit: 100},
	))
	require.NoError(t, err)
	_, err = repo.Append(ctx, early)
	require.NoError(t, err)

	late := draft(
		DraftLine{AccountID: 1, Debit: 900},
		DraftLine{AccountID: 2, Credit: 900},
	)
	late.EntryDate = testDate.AddDate(0, 1, 0)
	late.Source = SourceInvoicePayment
	lateEntry, err := Build(late)
	require.NoError(t, err)
	_, err = repo.Append(ctx, lateEntry)
	require.NoError(t, err)

	totals, err := repo.AccountTotals(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	require.Equal(t, int64(100), totals[0].Debit)
}

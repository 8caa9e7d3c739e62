package bills

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/ledger"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/masterdata/vendors"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/shared"
)

type fixture struct {
	service  *Service
	repo     *MemoryRepository
	accounts map[string]int64
	vendor   vendors.Vendor
	vat      taxes.Tax
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	chart := accounts.NewSeededMemoryRepository()
	ids := map[string]int64{}
	all, err := chart.List(ctx)
	require.NoError(t, err)
	for _, a := range all {
		ids[a.Code] = a.ID
	}

	vendorRepo := vendors.NewMemoryRepository()
	vendor, err := vendorRepo.Create(ctx, vendors.Vendor{Name: "Fjord Office Rentals", IsActive: true})
	require.NoError(t, err)

	taxRepo := taxes.NewMemoryRepository()
	vat, err := taxRepo.Create(ctx, taxes.Tax{Name: "VAT 25%", Percent: decimal.NewFromInt(25), IsActive: true})
	require.NoError(t, err)

	repo := NewMemoryRepository()
	service := NewService(logger, repo, vendorRepo, taxRepo,
		accounts.NewResolver(chart), ledger.NewGate(), nil, nil)

	return &fixture{service: service, repo: repo, accounts: ids, vendor: vendor, vat: vat}
}

func (f *fixture) createDraft(t *testing.T) Bill {
	t.Helper()
	b, err := f.service.Create(context.Background(), CreateInput{
		VendorID: f.vendor.ID,
		BillDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		DueDate:  time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{Description: "Office rent May", Quantity: decimal.NewFromInt(1), UnitPrice: 40000, TaxID: &f.vat.ID},
		},
	})
	require.NoError(t, err)
	return b
}

func TestCreateDraftResolvesExpenseAccount(t *testing.T) {
	f := newFixture(t)
	b := f.createDraft(t)

	require.Equal(t, StatusDraft, b.Status)
	require.Empty(t, b.Number)
	require.Equal(t, int64(40000), b.Subtotal)
	require.Equal(t, int64(10000), b.TaxTotal)
	require.Equal(t, int64(50000), b.Total)
	require.Len(t, b.Lines, 1)
	require.Equal(t, f.accounts["5300"], b.Lines[0].ExpenseAccountID)
	require.True(t, b.Lines[0].TaxPercent.Equal(decimal.NewFromInt(25)))

	// No journal activity for drafts.
	entries, err := f.repo.Journal.List(context.Background(), journal.Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestApprovePostsExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)

	approved, err := f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, "BILL-2026-0001", approved.Number)

	entries, err := f.repo.Journal.List(ctx, journal.Filter{Source: journal.SourceBillApprove, SourceRef: b.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	net := journal.SumByAccount(entries)
	require.Equal(t, int64(40000), net[f.accounts["5300"]])
	require.Equal(t, int64(10000), net[f.accounts["5710"]])
	require.Equal(t, int64(-50000), net[f.accounts["2100"]])
}

func TestApproveIsDraftOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)

	_, err := f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, b.ID, nil)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)
	_, err := f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)

	partial, err := f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 20000})
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, partial.Status)
	require.Equal(t, int64(30000), partial.Balance())

	_, err = f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 40000})
	require.ErrorIs(t, err, shared.ErrPaymentExceedsBalance)

	settled, err := f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 30000})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, settled.Status)
	require.Zero(t, settled.Balance())

	// Paid bills accept no further payments.
	_, err = f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 1})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Bank paid out the full total, payable nets to zero.
	entries, err := f.repo.Journal.List(ctx, journal.Filter{SourceRef: b.ID})
	require.NoError(t, err)
	net := journal.SumByAccount(entries)
	require.Equal(t, int64(-50000), net[f.accounts["1010"]])
	require.Zero(t, net[f.accounts["2100"]])

	recorded, err := f.repo.Payments.List(ctx, payments.Filter{DocumentID: b.ID})
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	for _, p := range recorded {
		require.Equal(t, payments.DirectionOutgoing, p.Direction)
		require.NotNil(t, p.CounterpartyID)
		require.Equal(t, b.VendorID, *p.CounterpartyID)
		require.NotEmpty(t, p.Reference)
	}
}

func TestVoidApprovedReversesEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)
	_, err := f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)

	voided, err := f.service.Void(ctx, b.ID, "duplicate bill")
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	entries, err := f.repo.Journal.List(ctx, journal.Filter{SourceRef: b.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for accountID, balance := range journal.SumByAccount(entries) {
		require.Zerof(t, balance, "account %d should net to zero after void", accountID)
	}

	_, err = f.service.Void(ctx, b.ID, "")
	require.ErrorIs(t, err, shared.ErrAlreadyVoid)
}

func TestVoidDraftPostsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)

	voided, err := f.service.Void(ctx, b.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	entries, err := f.repo.Journal.List(ctx, journal.Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestVoidRejectedAfterPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)
	_, err := f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)
	_, err = f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 5000})
	require.NoError(t, err)

	_, err = f.service.Void(ctx, b.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestUpdateDraftRevalues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)

	updated, err := f.service.UpdateDraft(ctx, b.ID, CreateInput{
		VendorID: f.vendor.ID,
		BillDate: b.BillDate,
		DueDate:  b.DueDate,
		Lines: []LineInput{
			{Description: "Office rent May", Quantity: decimal.NewFromInt(1), UnitPrice: 42000, TaxID: &f.vat.ID},
			{Description: "Cleaning", Quantity: decimal.NewFromInt(1), UnitPrice: 8000},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(50000), updated.Subtotal)
	require.Equal(t, int64(10500), updated.TaxTotal)
	require.Equal(t, int64(60500), updated.Total)

	_, err = f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)
	_, err = f.service.UpdateDraft(ctx, b.ID, CreateInput{
		VendorID: f.vendor.ID,
		Lines:    []LineInput{{Description: "Office rent May", Quantity: decimal.NewFromInt(1), UnitPrice: 1000}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestExplicitExpenseAccountOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inputVAT := f.accounts["5710"]

	b, err := f.service.Create(ctx, CreateInput{
		VendorID: f.vendor.ID,
		Lines: []LineInput{
			{Description: "Import VAT adjustment", Quantity: decimal.NewFromInt(1), UnitPrice: 2500, ExpenseAccountID: &inputVAT},
		},
	})
	require.NoError(t, err)
	require.Equal(t, inputVAT, b.Lines[0].ExpenseAccountID)

	missing := int64(999999)
	_, err = f.service.Create(ctx, CreateInput{
		VendorID: f.vendor.ID,
		Lines: []LineInput{
			{Description: "Unknown account", Quantity: decimal.NewFromInt(1), UnitPrice: 100, ExpenseAccountID: &missing},
		},
	})
	require.Error(t, err)
}

func TestOpenItemsTracksBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.createDraft(t)
	_, err := f.service.Approve(ctx, b.ID, nil)
	require.NoError(t, err)
	_, err = f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 20000})
	require.NoError(t, err)

	items, err := f.service.OpenItems(ctx, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(30000), items[0].Balance)

	_, err = f.service.RecordPayment(ctx, b.ID, PaymentInput{Amount: 30000})
	require.NoError(t, err)
	items, err = f.service.OpenItems(ctx, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, items)
}

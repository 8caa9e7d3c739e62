package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/ledger"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/masterdata/products"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/shared"
)

type fixture struct {
	service  *Service
	repo     *MemoryRepository
	accounts map[string]int64
	customer customers.Customer
	product  products.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slogDiscard()

	chart := accounts.NewSeededMemoryRepository()
	ids := map[string]int64{}
	all, err := chart.List(ctx)
	require.NoError(t, err)
	for _, a := range all {
		ids[a.Code] = a.ID
	}

	customerRepo := customers.NewMemoryRepository()
	customer, err := customerRepo.Create(ctx, customers.Customer{Name: "Acme AS", IsActive: true})
	require.NoError(t, err)

	taxRepo := taxes.NewMemoryRepository()
	vat, err := taxRepo.Create(ctx, taxes.Tax{Name: "VAT 25%", Percent: decimal.NewFromInt(25), IsActive: true})
	require.NoError(t, err)

	productRepo := products.NewMemoryRepository()
	product, err := productRepo.Create(ctx, products.Product{
		SKU:          "CONSULTING",
		Name:         "Consulting hour",
		UnitPrice:    10000,
		DefaultTaxID: &vat.ID,
		IsService:    true,
		IsActive:     true,
	})
	require.NoError(t, err)

	repo := NewMemoryRepository()
	service := NewService(logger, repo, customerRepo, productRepo, taxRepo,
		accounts.NewResolver(chart), ledger.NewGate(), nil, nil)

	return &fixture{service: service, repo: repo, accounts: ids, customer: customer, product: product}
}

func (f *fixture) createDraft(t *testing.T) Invoice {
	t.Helper()
	inv, err := f.service.Create(context.Background(), CreateInput{
		CustomerID: f.customer.ID,
		IssueDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{ProductID: &f.product.ID, Quantity: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	return inv
}

func TestCreateDraftValuation(t *testing.T) {
	f := newFixture(t)
	inv := f.createDraft(t)

	require.Equal(t, StatusDraft, inv.Status)
	require.Empty(t, inv.Number)
	require.Equal(t, int64(20000), inv.Subtotal)
	require.Equal(t, int64(5000), inv.TaxTotal)
	require.Equal(t, int64(25000), inv.Total)
	require.Len(t, inv.Lines, 1)
	require.Equal(t, "Consulting hour", inv.Lines[0].Description)
	require.Equal(t, f.accounts["4000"], inv.Lines[0].IncomeAccountID)
	require.True(t, inv.Lines[0].TaxPercent.Equal(decimal.NewFromInt(25)))

	// No journal activity for drafts.
	entries, err := f.repo.Journal.List(context.Background(), journal.Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestIssuePostsRevenue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)

	issued, err := f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)
	require.Equal(t, StatusIssued, issued.Status)
	require.Equal(t, "INV-2026-0001", issued.Number)

	entries, err := f.repo.Journal.List(ctx, journal.Filter{Source: journal.SourceInvoiceIssue, SourceRef: inv.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	net := journal.SumByAccount(entries)
	require.Equal(t, int64(25000), net[f.accounts["1100"]])
	require.Equal(t, int64(-20000), net[f.accounts["4000"]])
	require.Equal(t, int64(-5000), net[f.accounts["2610"]])
}

func TestIssueIsDraftOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)

	_, err := f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)
	_, err = f.service.Issue(ctx, inv.ID, nil)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)
	_, err := f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)

	partial, err := f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 10000})
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, partial.Status)
	require.Equal(t, int64(15000), partial.Balance())

	_, err = f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 20000})
	require.ErrorIs(t, err, shared.ErrPaymentExceedsBalance)

	settled, err := f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 15000})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, settled.Status)
	require.Zero(t, settled.Balance())

	// Paid invoices accept no further payments.
	_, err = f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 1})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Bank received the full total, receivable nets to zero.
	entries, err := f.repo.Journal.List(ctx, journal.Filter{SourceRef: inv.ID})
	require.NoError(t, err)
	net := journal.SumByAccount(entries)
	require.Equal(t, int64(25000), net[f.accounts["1010"]])
	require.Zero(t, net[f.accounts["1100"]])

	recorded, err := f.repo.Payments.List(ctx, paymentFilterFor(inv))
	require.NoError(t, err)
	require.Len(t, recorded, 2)
	for _, p := range recorded {
		require.Equal(t, payments.DirectionIncoming, p.Direction)
		require.NotNil(t, p.CounterpartyID)
		require.Equal(t, inv.CustomerID, *p.CounterpartyID)
		require.NotEmpty(t, p.Reference)
	}
}

func TestVoidIssuedReversesEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)
	_, err := f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)

	voided, err := f.service.Void(ctx, inv.ID, "customer cancelled")
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	entries, err := f.repo.Journal.List(ctx, journal.Filter{SourceRef: inv.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for accountID, balance := range journal.SumByAccount(entries) {
		require.Zerof(t, balance, "account %d should net to zero after void", accountID)
	}

	_, err = f.service.Void(ctx, inv.ID, "")
	require.ErrorIs(t, err, shared.ErrAlreadyVoid)
}

func TestVoidDraftPostsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)

	voided, err := f.service.Void(ctx, inv.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	entries, err := f.repo.Journal.List(ctx, journal.Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestVoidRejectedAfterPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)
	_, err := f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)
	_, err = f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 1000})
	require.NoError(t, err)

	_, err = f.service.Void(ctx, inv.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestUpdateDraftRevalues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)

	override := int64(5000)
	updated, err := f.service.UpdateDraft(ctx, inv.ID, CreateInput{
		CustomerID: f.customer.ID,
		IssueDate:  inv.IssueDate,
		DueDate:    inv.DueDate,
		Lines: []LineInput{
			{ProductID: &f.product.ID, Quantity: decimal.NewFromInt(3), UnitPrice: &override},
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(15000), updated.Subtotal)
	require.Equal(t, int64(18750), updated.Total)

	_, err = f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)
	_, err = f.service.UpdateDraft(ctx, inv.ID, CreateInput{CustomerID: f.customer.ID, Lines: []LineInput{{ProductID: &f.product.ID, Quantity: decimal.NewFromInt(1)}}})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestNegativeNetRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), CreateInput{
		CustomerID: f.customer.ID,
		Lines: []LineInput{
			{ProductID: &f.product.ID, Quantity: decimal.NewFromInt(1), Discount: 99999},
		},
	})
	require.True(t, shared.IsValidation(err))
}

func TestOpenItemsTracksBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.createDraft(t)
	_, err := f.service.Issue(ctx, inv.ID, nil)
	require.NoError(t, err)
	_, err = f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 10000})
	require.NoError(t, err)

	items, err := f.service.OpenItems(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(15000), items[0].Balance)

	_, err = f.service.RecordPayment(ctx, inv.ID, PaymentInput{Amount: 15000})
	require.NoError(t, err)
	items, err = f.service.OpenItems(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, items)
}

package orders

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
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/masterdata/products"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/sales/invoices"
	"github.com/clouderp/simplebooks/internal/shared"
)

type fixture struct {
	service  *Service
	invoices *invoices.Service
	customer customers.Customer
	product  products.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	chart := accounts.NewSeededMemoryRepository()
	customerRepo := customers.NewMemoryRepository()
	customer, err := customerRepo.Create(ctx, customers.Customer{Name: "Nordic Supplies", IsActive: true})
	require.NoError(t, err)

	taxRepo := taxes.NewMemoryRepository()
	vat, err := taxRepo.Create(ctx, taxes.Tax{Name: "VAT 25%", Percent: decimal.NewFromInt(25), IsActive: true})
	require.NoError(t, err)

	productRepo := products.NewMemoryRepository()
	product, err := productRepo.Create(ctx, products.Product{
		SKU: "WIDGET", Name: "Widget", UnitPrice: 10000, DefaultTaxID: &vat.ID, IsActive: true,
	})
	require.NoError(t, err)

	gate := ledger.NewGate()
	invoiceService := invoices.NewService(logger, invoices.NewMemoryRepository(), customerRepo, productRepo, taxRepo,
		accounts.NewResolver(chart), gate, nil, nil)
	service := NewService(NewMemoryRepository(), customerRepo, invoiceService, gate)

	return &fixture{service: service, invoices: invoiceService, customer: customer, product: product}
}

func (f *fixture) createDraft(t *testing.T) Order {
	t.Helper()
	o, err := f.service.Create(context.Background(), CreateInput{
		CustomerID: f.customer.ID,
		OrderDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []invoices.LineInput{
			{ProductID: &f.product.ID, Quantity: decimal.NewFromInt(2)},
		},
	})
	require.NoError(t, err)
	return o
}

func TestCreateDraftSnapshotsLines(t *testing.T) {
	f := newFixture(t)
	o := f.createDraft(t)

	require.Equal(t, StatusDraft, o.Status)
	require.Empty(t, o.Number)
	require.Equal(t, int64(20000), o.Subtotal)
	require.Equal(t, int64(25000), o.Total)
	require.Len(t, o.Lines, 1)
	require.Equal(t, int64(10000), o.Lines[0].UnitPrice)
}

func TestConfirmAllocatesNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.createDraft(t)

	confirmed, err := f.service.Confirm(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, confirmed.Status)
	require.Equal(t, "SO-2026-0001", confirmed.Number)

	_, err = f.service.Confirm(ctx, o.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestUpdateOnlyInDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.createDraft(t)
	_, err := f.service.Confirm(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.service.UpdateDraft(ctx, o.ID, CreateInput{
		CustomerID: f.customer.ID,
		Lines:      []invoices.LineInput{{ProductID: &f.product.ID, Quantity: decimal.NewFromInt(5)}},
	})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestConvertToInvoiceCopiesSnapshots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.createDraft(t)
	_, err := f.service.Confirm(ctx, o.ID)
	require.NoError(t, err)

	converted, inv, err := f.service.ConvertToInvoice(ctx, o.ID, time.Now().UTC().AddDate(0, 0, 14))
	require.NoError(t, err)
	require.Equal(t, StatusInvoiced, converted.Status)
	require.NotNil(t, converted.InvoiceID)
	require.Equal(t, *converted.InvoiceID, inv.ID)

	require.Equal(t, invoices.StatusDraft, inv.Status)
	require.Equal(t, o.Subtotal, inv.Subtotal)
	require.Equal(t, o.TaxTotal, inv.TaxTotal)
	require.Equal(t, o.Total, inv.Total)

	// Conversion is one-shot.
	_, _, err = f.service.ConvertToInvoice(ctx, o.ID, time.Time{})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestConvertRequiresConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.createDraft(t)

	_, _, err := f.service.ConvertToInvoice(ctx, o.ID, time.Time{})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestVoidBlockedAfterInvoicing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.createDraft(t)
	_, err := f.service.Confirm(ctx, o.ID)
	require.NoError(t, err)
	_, _, err = f.service.ConvertToInvoice(ctx, o.ID, time.Now().UTC().AddDate(0, 0, 7))
	require.NoError(t, err)

	_, err = f.service.Void(ctx, o.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

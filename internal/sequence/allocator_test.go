package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllocateConsecutiveWithinYear(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryStore())
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := alloc.Allocate(ctx, KindInvoice, issue)
	require.NoError(t, err)
	second, err := alloc.Allocate(ctx, KindInvoice, issue)
	require.NoError(t, err)

	require.Equal(t, "INV-2026-0001", first)
	require.Equal(t, "INV-2026-0002", second)
}

func TestAllocateRestartsPerYear(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryStore())

	_, err := alloc.Allocate(ctx, KindBill, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	number, err := alloc.Allocate(ctx, KindBill, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Equal(t, "BILL-2026-0001", number)
}

func TestAllocateSeriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator(NewMemoryStore())
	issue := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	inv, err := alloc.Allocate(ctx, KindInvoice, issue)
	require.NoError(t, err)
	so, err := alloc.Allocate(ctx, KindSalesOrder, issue)
	require.NoError(t, err)

	require.Equal(t, "INV-2026-0001", inv)
	require.Equal(t, "SO-2026-0001", so)
}

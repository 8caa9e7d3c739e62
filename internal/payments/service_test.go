package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/shared"
)

func TestStandalonePaymentSettlesNoDocument(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	customerID := int64(7)
	p, err := svc.CreateStandalone(ctx, Payment{
		Direction:      DirectionIncoming,
		Amount:         25000,
		CounterpartyID: &customerID,
		Method:         "bank_transfer",
	})
	require.NoError(t, err)
	require.Nil(t, p.DocumentID)
	require.NotNil(t, p.CounterpartyID)
	require.Equal(t, int64(7), *p.CounterpartyID)
	require.True(t, strings.HasPrefix(p.Reference, "PAY-"), "reference %q", p.Reference)
	require.False(t, p.PaidAt.IsZero())
}

func TestStandalonePaymentKeepsExplicitReference(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	p, err := svc.CreateStandalone(ctx, Payment{
		Direction: DirectionOutgoing,
		Amount:    1200,
		Reference: "STMT-2026-08-114",
	})
	require.NoError(t, err)
	require.Equal(t, "STMT-2026-08-114", p.Reference)
}

func TestStandalonePaymentValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	_, err := svc.CreateStandalone(ctx, Payment{Direction: "sideways", Amount: 100})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateStandalone(ctx, Payment{Direction: DirectionIncoming, Amount: 0})
	require.ErrorAs(t, err, &verr)
}

func TestListFiltersByCounterparty(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	acme := int64(1)
	fjord := int64(2)
	for _, p := range []Payment{
		{Direction: DirectionIncoming, Amount: 100, CounterpartyID: &acme, PaidAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Direction: DirectionIncoming, Amount: 200, CounterpartyID: &fjord, PaidAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Direction: DirectionOutgoing, Amount: 300, CounterpartyID: &acme, PaidAt: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := svc.CreateStandalone(ctx, p)
		require.NoError(t, err)
	}

	out, err := svc.List(ctx, Filter{CounterpartyID: &acme})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, p := range out {
		require.Equal(t, acme, *p.CounterpartyID)
	}

	out, err = svc.List(ctx, Filter{CounterpartyID: &acme, Direction: DirectionOutgoing})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(300), out[0].Amount)
}

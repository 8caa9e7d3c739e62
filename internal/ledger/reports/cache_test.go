package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheServesUntilBump(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]int{"value": loads}, nil
	}

	key, err := cache.BuildKey(ctx, "reports", "test")
	require.NoError(t, err)
	var out map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 1, loads)
	require.Equal(t, 1, out["value"])

	require.NoError(t, cache.Bump(ctx))

	key, err = cache.BuildKey(ctx, "reports", "test")
	require.NoError(t, err)
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 2, loads)
	require.Equal(t, 2, out["value"])
}

func TestTrialBalanceCachedAcrossCalls(t *testing.T) {
	ctx := context.Background()
	chart := accounts.NewSeededMemoryRepository()
	journals := journal.NewMemoryRepository()
	service := NewService(chart, journals, newTestCache(t))

	first, err := service.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	require.True(t, first.EquationBalanced)

	// New movement is invisible until the cache version bumps.
	all, err := chart.List(ctx)
	require.NoError(t, err)
	entry, err := journal.Build(journal.Draft{
		EntryDate: asOf.AddDate(0, 0, -1),
		Source:    journal.SourceManual,
		Memo:      "opening",
		Lines: []journal.DraftLine{
			{AccountID: all[0].ID, Debit: 5000},
			{AccountID: all[4].ID, Credit: 5000},
		},
	})
	require.NoError(t, err)
	_, err = journals.Append(ctx, entry)
	require.NoError(t, err)

	stale, err := service.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	require.Zero(t, stale.TotalDebit)

	require.NoError(t, service.Invalidate(ctx))

	fresh, err := service.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(5000), fresh.TotalDebit)
}

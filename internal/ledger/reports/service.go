package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
)

// OpenItemSource supplies unpaid document balances for one side of the
// ledger. The invoice and bill services each implement it.
type OpenItemSource interface {
	OpenItems(ctx context.Context, asOf time.Time) ([]OpenItem, error)
}

// Service assembles reports from the chart, the journal and the open-item
// sources, caching results until the next posting bumps the version.
type Service struct {
	accounts accounts.Repository
	journal  journal.Repository
	sources  map[Kind]OpenItemSource
	cache    *Cache
}

// NewService constructs a Service. Sources are registered afterwards because
// the document services that provide them depend on this package's cache
// invalidation.
func NewService(accountsRepo accounts.Repository, journalRepo journal.Repository, cache *Cache) *Service {
	return &Service{
		accounts: accountsRepo,
		journal:  journalRepo,
		sources:  make(map[Kind]OpenItemSource, 2),
		cache:    cache,
	}
}

// RegisterSource attaches the open-item provider for a report kind.
func (s *Service) RegisterSource(kind Kind, src OpenItemSource) {
	s.sources[kind] = src
}

// TrialBalance returns the cumulative position of every account as of a date.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, keyTrialBalance(asOf)...)
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (any, error) {
		chart, err := s.accounts.List(ctx)
		if err != nil {
			return nil, err
		}
		totals, err := s.journal.AccountTotals(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(asOf, chart, totals), nil
	})
	return tb, err
}

// Aging returns the bucketed open-item report for AR or AP.
func (s *Service) Aging(ctx context.Context, kind Kind, asOf time.Time) (Aging, error) {
	src, ok := s.sources[kind]
	if !ok {
		return Aging{}, fmt.Errorf("reports: no open-item source for kind %q", kind)
	}
	key, err := s.cache.BuildKey(ctx, keyAging(kind, asOf)...)
	if err != nil {
		return Aging{}, err
	}
	var report Aging
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		items, err := src.OpenItems(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildAging(kind, asOf, items), nil
	})
	return report, err
}

// Invalidate drops all cached reports. Document services call it after every
// posting.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

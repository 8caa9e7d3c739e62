package journal

import (
	"context"
	"time"
)

// Service exposes read access to the posted journal for the ledger endpoints.
// Writes go through Build + AppendEntry inside the owning document's
// transaction, never through this service.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns posted entries matching the filter, lines included.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	return s.repo.List(ctx, f)
}

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// AccountTotals returns cumulative debit/credit per account up to asOf.
func (s *Service) AccountTotals(ctx context.Context, asOf time.Time) ([]AccountTotal, error) {
	return s.repo.AccountTotals(ctx, asOf)
}

package taxes

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Tax, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Tax, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, tax Tax) (Tax, error) {
	if err := s.validate(tax); err != nil {
		return Tax{}, err
	}
	return s.repo.Create(ctx, tax)
}

func (s *Service) Update(ctx context.Context, tax Tax) (Tax, error) {
	if err := s.validate(tax); err != nil {
		return Tax{}, err
	}
	return s.repo.Update(ctx, tax)
}

func (s *Service) validate(t Tax) error {
	if strings.TrimSpace(t.Name) == "" {
		return shared.Validation("name", "tax name is required")
	}
	if t.Percent.IsNegative() || t.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.Validation("percent", "tax percent must be between 0 and 100")
	}
	return nil
}

package products

import (
	"context"
	"strings"

	"github.com/clouderp/simplebooks/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]Product, error) {
	return s.repo.List(ctx, search)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, p Product) (Product, error) {
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return shared.Validation("sku", "product sku is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return shared.Validation("name", "product name is required")
	}
	if p.UnitPrice < 0 {
		return shared.Validation("unit_price", "unit price must not be negative")
	}
	return nil
}

package vendors

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string) ([]Vendor, error) {
	return s.repo.List(ctx, search)
}

func (s *Service) Get(ctx context.Context, id int64) (Vendor, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Vendor) (Vendor, error) {
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, c Vendor) (Vendor, error) {
	return s.repo.Update(ctx, c)
}

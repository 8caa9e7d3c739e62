package payments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Service records standalone payments and lists the full payment registry.
// Payments applied to invoices or bills are written by those document
// services inside their posting transactions; this service never touches
// document balances.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Payment, error) {
	return s.repo.List(ctx, f)
}

// CreateStandalone records a payment that settles no document.
func (s *Service) CreateStandalone(ctx context.Context, p Payment) (Payment, error) {
	if p.Direction != DirectionIncoming && p.Direction != DirectionOutgoing {
		return Payment{}, shared.Validation("direction", "direction must be incoming or outgoing")
	}
	if p.Amount <= 0 {
		return Payment{}, shared.Validation("amount", "amount must be positive")
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now().UTC()
	}
	if p.Reference == "" {
		p.Reference = NewReference()
	}
	p.DocumentID = nil
	return s.repo.Create(ctx, p)
}

// NewReference generates a receipt reference for payments that arrive
// without a bank statement line to reconcile against.
func NewReference() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:8])
}

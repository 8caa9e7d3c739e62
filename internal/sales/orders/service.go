package orders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/ledger"
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/sales/invoices"
	"github.com/clouderp/simplebooks/internal/shared"
)

// CreateInput is the payload for creating or replacing a draft order. Lines
// reuse the invoice line input so defaults resolve identically.
type CreateInput struct {
	CustomerID int64                `json:"customer_id"`
	OrderDate  time.Time            `json:"order_date"`
	Memo       string               `json:"memo"`
	Lines      []invoices.LineInput `json:"lines"`
}

// Service drives the sales order lifecycle. Orders carry valuation
// snapshots but never post to the ledger; conversion hands the snapshots to
// the invoice service.
type Service struct {
	repo      Repository
	customers customers.Repository
	invoices  *invoices.Service
	gate      *ledger.Gate
}

// NewService constructs a Service.
func NewService(repo Repository, customersRepo customers.Repository, invoiceService *invoices.Service, gate *ledger.Gate) *Service {
	return &Service{repo: repo, customers: customersRepo, invoices: invoiceService, gate: gate}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a draft order with resolved line snapshots.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	var created Order
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		o, err := s.buildDraft(ctx, in)
		if err != nil {
			return err
		}
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			created, err = tx.Insert(ctx, o)
			return err
		})
	})
	return created, err
}

// UpdateDraft replaces a draft order's header and lines.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, in CreateInput) (Order, error) {
	var updated Order
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		o, err := s.buildDraft(ctx, in)
		if err != nil {
			return err
		}
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			current, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(current.Status, "update"); err != nil {
				return err
			}
			o.ID = current.ID
			o.Status = current.Status
			o.CreatedAt = current.CreatedAt
			updated, err = tx.ReplaceDraft(ctx, o)
			return err
		})
	})
	return updated, err
}

// Confirm allocates the order number and locks the draft.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (Order, error) {
	var confirmed Order
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			o, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(o.Status, "confirm"); err != nil {
				return err
			}
			date := o.OrderDate
			if date.IsZero() {
				date = time.Now().UTC()
			}
			number, err := tx.NextDocumentNumber(ctx, date)
			if err != nil {
				return err
			}
			if err := tx.MarkConfirmed(ctx, o.ID, number); err != nil {
				return err
			}
			o.Number = number
			o.Status = StatusConfirmed
			confirmed = o
			return nil
		})
	})
	return confirmed, err
}

// Void cancels an order that has not been invoiced.
func (s *Service) Void(ctx context.Context, id uuid.UUID) (Order, error) {
	var voided Order
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			o, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(o.Status, "void"); err != nil {
				return err
			}
			if err := tx.MarkVoid(ctx, o.ID); err != nil {
				return err
			}
			o.Status = StatusVoid
			voided = o
			return nil
		})
	})
	return voided, err
}

// ConvertToInvoice copies a confirmed order's snapshots into a draft
// invoice and marks the order invoiced. The invoice creation takes the
// ledger gate itself, so the final status flip runs as its own transaction
// with a state re-check.
func (s *Service) ConvertToInvoice(ctx context.Context, id uuid.UUID, dueDate time.Time) (Order, invoices.Invoice, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, invoices.Invoice{}, err
	}
	if err := guardTransition(o.Status, "invoice"); err != nil {
		return Order{}, invoices.Invoice{}, err
	}

	in := invoices.CreateInput{
		CustomerID: o.CustomerID,
		IssueDate:  time.Now().UTC(),
		DueDate:    dueDate,
		Memo:       o.Memo,
	}
	for _, l := range o.Lines {
		line := l
		in.Lines = append(in.Lines, invoices.LineInput{
			ProductID:       line.ProductID,
			Description:     line.Description,
			Quantity:        line.Quantity,
			UnitPrice:       &line.UnitPrice,
			Discount:        line.Discount,
			TaxPercent:      &line.TaxPercent,
			IncomeAccountID: &line.IncomeAccountID,
		})
	}
	inv, err := s.invoices.Create(ctx, in)
	if err != nil {
		return Order{}, invoices.Invoice{}, err
	}

	err = s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			current, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(current.Status, "invoice"); err != nil {
				return err
			}
			return tx.MarkInvoiced(ctx, id, inv.ID)
		})
	})
	if err != nil {
		return Order{}, invoices.Invoice{}, err
	}
	o.Status = StatusInvoiced
	o.InvoiceID = &inv.ID
	return o, inv, nil
}

func (s *Service) buildDraft(ctx context.Context, in CreateInput) (Order, error) {
	customer, err := s.customers.Get(ctx, in.CustomerID)
	if err != nil {
		return Order{}, shared.Validation("customer_id", "customer not found")
	}
	if !customer.IsActive {
		return Order{}, shared.Validation("customer_id", "customer is inactive")
	}
	if len(in.Lines) == 0 {
		return Order{}, shared.Validation("lines", "at least one line is required")
	}
	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	lines, sum, err := s.invoices.ResolveLines(ctx, in.Lines)
	if err != nil {
		return Order{}, err
	}
	o := Order{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		OrderDate:    orderDate,
		Status:       StatusDraft,
		Subtotal:     sum.Subtotal,
		TaxTotal:     sum.TaxTotal,
		Total:        sum.Total,
		Memo:         in.Memo,
	}
	for _, l := range lines {
		o.Lines = append(o.Lines, Line{
			ProductID:       l.ProductID,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			Discount:        l.Discount,
			TaxPercent:      l.TaxPercent,
			IncomeAccountID: l.IncomeAccountID,
			Net:             l.Net,
			Tax:             l.Tax,
			Total:           l.Total,
		})
	}
	return o, nil
}

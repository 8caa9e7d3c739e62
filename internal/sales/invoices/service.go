package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/ledger"
	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	"github.com/clouderp/simplebooks/internal/masterdata/customers"
	"github.com/clouderp/simplebooks/internal/masterdata/products"
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/money"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/shared"
)

// CacheInvalidator drops cached reports after a posting.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// PostingObserver counts postings for metrics.
type PostingObserver interface {
	ObservePosting(source string)
}

// LineInput is one requested invoice line. Unset optional fields fall back
// to the referenced product's defaults.
type LineInput struct {
	ProductID       *int64           `json:"product_id"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *int64           `json:"unit_price"`
	Discount        int64            `json:"discount"`
	TaxPercent      *decimal.Decimal `json:"tax_percent"`
	TaxID           *int64           `json:"tax_id"`
	IncomeAccountID *int64           `json:"income_account_id"`
}

// CreateInput is the payload for creating or replacing a draft invoice.
type CreateInput struct {
	CustomerID int64       `json:"customer_id"`
	IssueDate  time.Time   `json:"issue_date"`
	DueDate    time.Time   `json:"due_date"`
	Memo       string      `json:"memo"`
	Lines      []LineInput `json:"lines"`
}

// PaymentInput records a payment against an issued invoice.
type PaymentInput struct {
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	Memo      string    `json:"memo"`
}

// Service drives the invoice lifecycle. Every mutation runs under the
// ledger gate and inside one repository transaction, so the document state,
// its journal entries and the sequence counter always agree.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	customers customers.Repository
	products  products.Repository
	taxes     taxes.Repository
	resolver  *accounts.Resolver
	gate      *ledger.Gate
	cache     CacheInvalidator
	observer  PostingObserver
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, customersRepo customers.Repository, productsRepo products.Repository, taxesRepo taxes.Repository, resolver *accounts.Resolver, gate *ledger.Gate, cache CacheInvalidator, observer PostingObserver) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		customers: customersRepo,
		products:  productsRepo,
		taxes:     taxesRepo,
		resolver:  resolver,
		gate:      gate,
		cache:     cache,
		observer:  observer,
	}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Invoice, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// OpenItems feeds the AR aging report.
func (s *Service) OpenItems(ctx context.Context, asOf time.Time) ([]reports.OpenItem, error) {
	return s.repo.OpenItems(ctx, asOf)
}

// Create stores a draft invoice with all line values resolved and frozen.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	var created Invoice
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		inv, err := s.buildDraft(ctx, in)
		if err != nil {
			return err
		}
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			created, err = tx.Insert(ctx, inv)
			return err
		})
	})
	return created, err
}

// UpdateDraft replaces a draft invoice's header and lines.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, in CreateInput) (Invoice, error) {
	var updated Invoice
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		inv, err := s.buildDraft(ctx, in)
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
			inv.ID = current.ID
			inv.Status = current.Status
			inv.CreatedAt = current.CreatedAt
			updated, err = tx.ReplaceDraft(ctx, inv)
			return err
		})
	})
	return updated, err
}

// Issue allocates the invoice number and posts revenue: receivable debited
// for the gross total, each line's income account credited for its net,
// output VAT credited for the tax.
func (s *Service) Issue(ctx context.Context, id uuid.UUID, issueDate *time.Time) (Invoice, error) {
	var issued Invoice
	posted := false
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(inv.Status, "issue"); err != nil {
				return err
			}

			date := inv.IssueDate
			if issueDate != nil {
				date = *issueDate
			}
			if date.IsZero() {
				date = time.Now().UTC()
			}
			due := inv.DueDate
			if due.Before(date) {
				due = date
			}

			number, err := tx.NextDocumentNumber(ctx, date)
			if err != nil {
				return err
			}

			status := StatusIssued
			if inv.Total == 0 {
				// Nothing to collect and nothing to post.
				status = StatusPaid
			} else {
				entry, err := s.issueEntry(ctx, inv, date, number)
				if err != nil {
					return err
				}
				if _, err := tx.AppendEntry(ctx, entry); err != nil {
					return err
				}
				posted = true
			}

			if err := tx.MarkIssued(ctx, inv.ID, number, status, date, due); err != nil {
				return err
			}
			inv.Number = number
			inv.Status = status
			inv.IssueDate = date
			inv.DueDate = due
			issued = inv
			return nil
		})
	})
	if err != nil {
		return Invoice{}, err
	}
	s.afterPosting(ctx, posted, journal.SourceInvoiceIssue, issued.Number)
	return issued, nil
}

// RecordPayment applies a payment: bank debited, receivable credited. The
// payment may not exceed the open balance.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, in PaymentInput) (Invoice, error) {
	var paid Invoice
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(inv.Status, "pay"); err != nil {
				return err
			}
			if in.Amount <= 0 {
				return shared.Validation("amount", "amount must be positive")
			}
			if in.Amount > inv.Balance() {
				return shared.ErrPaymentExceedsBalance
			}
			paidAt := in.PaidAt
			if paidAt.IsZero() {
				paidAt = time.Now().UTC()
			}

			bank, err := s.resolver.Resolve(ctx, accounts.RoleBank)
			if err != nil {
				return err
			}
			receivable, err := s.resolver.Resolve(ctx, accounts.RoleAccountsReceivable)
			if err != nil {
				return err
			}
			entry, err := journal.Build(journal.Draft{
				EntryDate: paidAt,
				Source:    journal.SourceInvoicePayment,
				SourceRef: inv.ID,
				Memo:      fmt.Sprintf("payment on %s", inv.Number),
				Lines: []journal.DraftLine{
					{AccountID: bank, Debit: in.Amount},
					{AccountID: receivable, Credit: in.Amount},
				},
			})
			if err != nil {
				return err
			}
			if _, err := tx.AppendEntry(ctx, entry); err != nil {
				return err
			}
			customerID := inv.CustomerID
			reference := in.Reference
			if reference == "" {
				reference = payments.NewReference()
			}
			if _, err := tx.InsertPayment(ctx, payments.Payment{
				Direction:      payments.DirectionIncoming,
				DocumentID:     &inv.ID,
				CounterpartyID: &customerID,
				Amount:         in.Amount,
				PaidAt:         paidAt,
				Method:         in.Method,
				Reference:      reference,
				Memo:           in.Memo,
			}); err != nil {
				return err
			}

			newPaid := inv.PaidTotal + in.Amount
			status := paymentStatus(inv.Total, newPaid)
			if err := tx.UpdatePaymentState(ctx, inv.ID, newPaid, status); err != nil {
				return err
			}
			inv.PaidTotal = newPaid
			inv.Status = status
			paid = inv
			return nil
		})
	})
	if err != nil {
		return Invoice{}, err
	}
	s.afterPosting(ctx, true, journal.SourceInvoicePayment, paid.Number)
	return paid, nil
}

// Void cancels an invoice. Drafts are voided in place; issued invoices get
// a mirrored reversal of the issue entry. Invoices with payments cannot be
// voided.
func (s *Service) Void(ctx context.Context, id uuid.UUID, reason string) (Invoice, error) {
	var voided Invoice
	posted := false
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			inv, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(inv.Status, "void"); err != nil {
				return err
			}
			if inv.PaidTotal != 0 {
				return shared.ErrInvalidState
			}

			if inv.Status != StatusDraft {
				entries, err := tx.EntriesFor(ctx, journal.SourceInvoiceIssue, inv.ID)
				if err != nil {
					return err
				}
				for _, issueEntry := range entries {
					memo := fmt.Sprintf("void %s", inv.Number)
					if reason != "" {
						memo += ": " + reason
					}
					reversal, err := journal.Build(journal.Reverse(issueEntry, time.Now().UTC(), journal.SourceInvoiceVoid, memo))
					if err != nil {
						return err
					}
					if _, err := tx.AppendEntry(ctx, reversal); err != nil {
						return err
					}
					posted = true
				}
			}
			if err := tx.MarkVoid(ctx, inv.ID); err != nil {
				return err
			}
			inv.Status = StatusVoid
			voided = inv
			return nil
		})
	})
	if err != nil {
		return Invoice{}, err
	}
	s.afterPosting(ctx, posted, journal.SourceInvoiceVoid, voided.Number)
	return voided, nil
}

// issueEntry maps the invoice totals onto ledger accounts.
func (s *Service) issueEntry(ctx context.Context, inv Invoice, date time.Time, number string) (journal.Entry, error) {
	receivable, err := s.resolver.Resolve(ctx, accounts.RoleAccountsReceivable)
	if err != nil {
		return journal.Entry{}, err
	}
	outputVAT, err := s.resolver.Resolve(ctx, accounts.RoleOutputVAT)
	if err != nil {
		return journal.Entry{}, err
	}
	lines := []journal.DraftLine{{AccountID: receivable, Debit: inv.Total}}
	for _, l := range inv.Lines {
		lines = append(lines, journal.DraftLine{AccountID: l.IncomeAccountID, Credit: l.Net})
	}
	lines = append(lines, journal.DraftLine{AccountID: outputVAT, Credit: inv.TaxTotal})
	return journal.Build(journal.Draft{
		EntryDate: date,
		Source:    journal.SourceInvoiceIssue,
		SourceRef: inv.ID,
		Memo:      fmt.Sprintf("issue %s", number),
		Lines:     lines,
	})
}

// buildDraft validates the input and resolves every line's price, tax and
// income account into an immutable snapshot.
func (s *Service) buildDraft(ctx context.Context, in CreateInput) (Invoice, error) {
	customer, err := s.customers.Get(ctx, in.CustomerID)
	if err != nil {
		return Invoice{}, shared.Validation("customer_id", "customer not found")
	}
	if !customer.IsActive {
		return Invoice{}, shared.Validation("customer_id", "customer is inactive")
	}
	if len(in.Lines) == 0 {
		return Invoice{}, shared.Validation("lines", "at least one line is required")
	}
	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now().UTC()
	}
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate
	}
	if dueDate.Before(issueDate) {
		return Invoice{}, shared.Validation("due_date", "due date cannot precede issue date")
	}

	inv := Invoice{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		IssueDate:    issueDate,
		DueDate:      dueDate,
		Status:       StatusDraft,
		Memo:         in.Memo,
	}
	lines, sum, err := s.ResolveLines(ctx, in.Lines)
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines = lines
	inv.Subtotal = sum.Subtotal
	inv.TaxTotal = sum.TaxTotal
	inv.Total = sum.Total
	return inv, nil
}

// ResolveLines resolves and values document lines. Sales orders use it too,
// so both document types freeze identical snapshots.
func (s *Service) ResolveLines(ctx context.Context, inputs []LineInput) ([]Line, money.DocumentTotals, error) {
	var lines []Line
	var totals []money.LineTotals
	for _, li := range inputs {
		line, lt, err := s.resolveLine(ctx, li)
		if err != nil {
			return nil, money.DocumentTotals{}, err
		}
		lines = append(lines, line)
		totals = append(totals, lt)
	}
	return lines, money.Summarize(totals), nil
}

func (s *Service) resolveLine(ctx context.Context, in LineInput) (Line, money.LineTotals, error) {
	var product *products.Product
	if in.ProductID != nil {
		p, err := s.products.Get(ctx, *in.ProductID)
		if err != nil {
			return Line{}, money.LineTotals{}, shared.Validation("product_id", "product not found")
		}
		if !p.IsActive {
			return Line{}, money.LineTotals{}, shared.Validation("product_id", "product is inactive")
		}
		product = &p
	}

	description := in.Description
	if description == "" && product != nil {
		description = product.Name
	}
	if description == "" {
		return Line{}, money.LineTotals{}, shared.Validation("description", "line description is required")
	}

	var unitPrice int64
	switch {
	case in.UnitPrice != nil:
		unitPrice = *in.UnitPrice
	case product != nil:
		unitPrice = product.UnitPrice
	default:
		return Line{}, money.LineTotals{}, shared.Validation("unit_price", "unit price is required without a product")
	}
	if unitPrice < 0 {
		return Line{}, money.LineTotals{}, shared.Validation("unit_price", "unit price must not be negative")
	}

	taxPercent, err := s.resolveTaxPercent(ctx, in, product)
	if err != nil {
		return Line{}, money.LineTotals{}, err
	}

	incomeAccount, err := s.resolveIncomeAccount(ctx, in, product)
	if err != nil {
		return Line{}, money.LineTotals{}, err
	}

	lt, err := money.Valuate(money.Line{
		Quantity:   in.Quantity,
		UnitPrice:  unitPrice,
		Discount:   in.Discount,
		TaxPercent: taxPercent,
	})
	if err != nil {
		return Line{}, money.LineTotals{}, err
	}

	return Line{
		ProductID:       in.ProductID,
		Description:     description,
		Quantity:        in.Quantity,
		UnitPrice:       unitPrice,
		Discount:        in.Discount,
		TaxPercent:      taxPercent,
		IncomeAccountID: incomeAccount,
		Net:             lt.Net,
		Tax:             lt.Tax,
		Total:           lt.Total,
	}, lt, nil
}

func (s *Service) resolveTaxPercent(ctx context.Context, in LineInput, product *products.Product) (decimal.Decimal, error) {
	if in.TaxPercent != nil {
		return *in.TaxPercent, nil
	}
	taxID := in.TaxID
	if taxID == nil && product != nil {
		taxID = product.DefaultTaxID
	}
	if taxID == nil {
		return decimal.Zero, nil
	}
	tax, err := s.taxes.Get(ctx, *taxID)
	if err != nil {
		return decimal.Zero, shared.Validation("tax_id", "tax rate not found")
	}
	if !tax.IsActive {
		return decimal.Zero, shared.Validation("tax_id", "tax rate is inactive")
	}
	return tax.Percent, nil
}

func (s *Service) resolveIncomeAccount(ctx context.Context, in LineInput, product *products.Product) (int64, error) {
	if in.IncomeAccountID != nil {
		return s.resolver.RequireAccount(ctx, *in.IncomeAccountID)
	}
	if product != nil && product.IncomeAccountID != nil {
		return s.resolver.RequireAccount(ctx, *product.IncomeAccountID)
	}
	return s.resolver.Resolve(ctx, accounts.RoleSales)
}

func (s *Service) afterPosting(ctx context.Context, posted bool, source journal.Source, number string) {
	if !posted {
		return
	}
	if s.observer != nil {
		s.observer.ObservePosting(string(source))
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("report cache invalidation failed", slog.String("document", number), slog.Any("error", err))
		}
	}
}

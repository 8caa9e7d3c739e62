package bills

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
	"github.com/clouderp/simplebooks/internal/masterdata/taxes"
	"github.com/clouderp/simplebooks/internal/masterdata/vendors"
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

// LineInput is one requested bill line. The expense account falls back to
// the operating expenses slot when unset.
type LineInput struct {
	Description      string           `json:"description"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPrice        int64            `json:"unit_price"`
	Discount         int64            `json:"discount"`
	TaxPercent       *decimal.Decimal `json:"tax_percent"`
	TaxID            *int64           `json:"tax_id"`
	ExpenseAccountID *int64           `json:"expense_account_id"`
}

// CreateInput is the payload for creating or replacing a draft bill.
type CreateInput struct {
	VendorID int64       `json:"vendor_id"`
	BillDate time.Time   `json:"bill_date"`
	DueDate  time.Time   `json:"due_date"`
	Memo     string      `json:"memo"`
	Lines    []LineInput `json:"lines"`
}

// PaymentInput records a payment against an approved bill.
type PaymentInput struct {
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	Memo      string    `json:"memo"`
}

// Service drives the bill lifecycle. Every mutation runs under the ledger
// gate and inside one repository transaction, so the document state, its
// journal entries and the sequence counter always agree.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	vendors  vendors.Repository
	taxes    taxes.Repository
	resolver *accounts.Resolver
	gate     *ledger.Gate
	cache    CacheInvalidator
	observer PostingObserver
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo Repository, vendorsRepo vendors.Repository, taxesRepo taxes.Repository, resolver *accounts.Resolver, gate *ledger.Gate, cache CacheInvalidator, observer PostingObserver) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		vendors:  vendorsRepo,
		taxes:    taxesRepo,
		resolver: resolver,
		gate:     gate,
		cache:    cache,
		observer: observer,
	}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Bill, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Bill, error) {
	return s.repo.Get(ctx, id)
}

// OpenItems feeds the AP aging report.
func (s *Service) OpenItems(ctx context.Context, asOf time.Time) ([]reports.OpenItem, error) {
	return s.repo.OpenItems(ctx, asOf)
}

// Create stores a draft bill with all line values resolved and frozen.
func (s *Service) Create(ctx context.Context, in CreateInput) (Bill, error) {
	var created Bill
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		b, err := s.buildDraft(ctx, in)
		if err != nil {
			return err
		}
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			created, err = tx.Insert(ctx, b)
			return err
		})
	})
	return created, err
}

// UpdateDraft replaces a draft bill's header and lines.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, in CreateInput) (Bill, error) {
	var updated Bill
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		b, err := s.buildDraft(ctx, in)
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
			b.ID = current.ID
			b.Status = current.Status
			b.CreatedAt = current.CreatedAt
			updated, err = tx.ReplaceDraft(ctx, b)
			return err
		})
	})
	return updated, err
}

// Approve allocates the bill number and posts the expense: each line's
// expense account debited for its net, input VAT debited for the tax,
// payable credited for the gross total.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, billDate *time.Time) (Bill, error) {
	var approved Bill
	posted := false
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			b, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(b.Status, "approve"); err != nil {
				return err
			}

			date := b.BillDate
			if billDate != nil {
				date = *billDate
			}
			if date.IsZero() {
				date = time.Now().UTC()
			}
			due := b.DueDate
			if due.Before(date) {
				due = date
			}

			number, err := tx.NextDocumentNumber(ctx, date)
			if err != nil {
				return err
			}

			status := StatusApproved
			if b.Total == 0 {
				// Nothing to pay and nothing to post.
				status = StatusPaid
			} else {
				entry, err := s.approveEntry(ctx, b, date, number)
				if err != nil {
					return err
				}
				if _, err := tx.AppendEntry(ctx, entry); err != nil {
					return err
				}
				posted = true
			}

			if err := tx.MarkApproved(ctx, b.ID, number, status, date, due); err != nil {
				return err
			}
			b.Number = number
			b.Status = status
			b.BillDate = date
			b.DueDate = due
			approved = b
			return nil
		})
	})
	if err != nil {
		return Bill{}, err
	}
	s.afterPosting(ctx, posted, journal.SourceBillApprove, approved.Number)
	return approved, nil
}

// RecordPayment applies an outgoing payment: payable debited, bank credited.
// The payment may not exceed the open balance.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, in PaymentInput) (Bill, error) {
	var paid Bill
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			b, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(b.Status, "pay"); err != nil {
				return err
			}
			if in.Amount <= 0 {
				return shared.Validation("amount", "amount must be positive")
			}
			if in.Amount > b.Balance() {
				return shared.ErrPaymentExceedsBalance
			}
			paidAt := in.PaidAt
			if paidAt.IsZero() {
				paidAt = time.Now().UTC()
			}

			payable, err := s.resolver.Resolve(ctx, accounts.RoleAccountsPayable)
			if err != nil {
				return err
			}
			bank, err := s.resolver.Resolve(ctx, accounts.RoleBank)
			if err != nil {
				return err
			}
			entry, err := journal.Build(journal.Draft{
				EntryDate: paidAt,
				Source:    journal.SourceBillPayment,
				SourceRef: b.ID,
				Memo:      fmt.Sprintf("payment on %s", b.Number),
				Lines: []journal.DraftLine{
					{AccountID: payable, Debit: in.Amount},
					{AccountID: bank, Credit: in.Amount},
				},
			})
			if err != nil {
				return err
			}
			if _, err := tx.AppendEntry(ctx, entry); err != nil {
				return err
			}
			vendorID := b.VendorID
			reference := in.Reference
			if reference == "" {
				reference = payments.NewReference()
			}
			if _, err := tx.InsertPayment(ctx, payments.Payment{
				Direction:      payments.DirectionOutgoing,
				DocumentID:     &b.ID,
				CounterpartyID: &vendorID,
				Amount:         in.Amount,
				PaidAt:         paidAt,
				Method:         in.Method,
				Reference:      reference,
				Memo:           in.Memo,
			}); err != nil {
				return err
			}

			newPaid := b.PaidTotal + in.Amount
			status := paymentStatus(b.Total, newPaid)
			if err := tx.UpdatePaymentState(ctx, b.ID, newPaid, status); err != nil {
				return err
			}
			b.PaidTotal = newPaid
			b.Status = status
			paid = b
			return nil
		})
	})
	if err != nil {
		return Bill{}, err
	}
	s.afterPosting(ctx, true, journal.SourceBillPayment, paid.Number)
	return paid, nil
}

// Void cancels a bill. Drafts are voided in place; approved bills get a
// mirrored reversal of the approval entry. Bills with payments cannot be
// voided.
func (s *Service) Void(ctx context.Context, id uuid.UUID, reason string) (Bill, error) {
	var voided Bill
	posted := false
	err := s.gate.Do(ctx, func(ctx context.Context) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			b, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := guardTransition(b.Status, "void"); err != nil {
				return err
			}
			if b.PaidTotal != 0 {
				return shared.ErrInvalidState
			}

			if b.Status != StatusDraft {
				entries, err := tx.EntriesFor(ctx, journal.SourceBillApprove, b.ID)
				if err != nil {
					return err
				}
				for _, approveEntry := range entries {
					memo := fmt.Sprintf("void %s", b.Number)
					if reason != "" {
						memo += ": " + reason
					}
					reversal, err := journal.Build(journal.Reverse(approveEntry, time.Now().UTC(), journal.SourceBillVoid, memo))
					if err != nil {
						return err
					}
					if _, err := tx.AppendEntry(ctx, reversal); err != nil {
						return err
					}
					posted = true
				}
			}
			if err := tx.MarkVoid(ctx, b.ID); err != nil {
				return err
			}
			b.Status = StatusVoid
			voided = b
			return nil
		})
	})
	if err != nil {
		return Bill{}, err
	}
	s.afterPosting(ctx, posted, journal.SourceBillVoid, voided.Number)
	return voided, nil
}

// approveEntry maps the bill totals onto ledger accounts.
func (s *Service) approveEntry(ctx context.Context, b Bill, date time.Time, number string) (journal.Entry, error) {
	payable, err := s.resolver.Resolve(ctx, accounts.RoleAccountsPayable)
	if err != nil {
		return journal.Entry{}, err
	}
	inputVAT, err := s.resolver.Resolve(ctx, accounts.RoleInputVAT)
	if err != nil {
		return journal.Entry{}, err
	}
	var lines []journal.DraftLine
	for _, l := range b.Lines {
		lines = append(lines, journal.DraftLine{AccountID: l.ExpenseAccountID, Debit: l.Net})
	}
	lines = append(lines,
		journal.DraftLine{AccountID: inputVAT, Debit: b.TaxTotal},
		journal.DraftLine{AccountID: payable, Credit: b.Total},
	)
	return journal.Build(journal.Draft{
		EntryDate: date,
		Source:    journal.SourceBillApprove,
		SourceRef: b.ID,
		Memo:      fmt.Sprintf("approve %s", number),
		Lines:     lines,
	})
}

// buildDraft validates the input and resolves every line's tax and expense
// account into an immutable snapshot.
func (s *Service) buildDraft(ctx context.Context, in CreateInput) (Bill, error) {
	vendor, err := s.vendors.Get(ctx, in.VendorID)
	if err != nil {
		return Bill{}, shared.Validation("vendor_id", "vendor not found")
	}
	if !vendor.IsActive {
		return Bill{}, shared.Validation("vendor_id", "vendor is inactive")
	}
	if len(in.Lines) == 0 {
		return Bill{}, shared.Validation("lines", "at least one line is required")
	}
	billDate := in.BillDate
	if billDate.IsZero() {
		billDate = time.Now().UTC()
	}
	dueDate := in.DueDate
	if dueDate.IsZero() {
		dueDate = billDate
	}
	if dueDate.Before(billDate) {
		return Bill{}, shared.Validation("due_date", "due date cannot precede bill date")
	}

	b := Bill{
		VendorID:   vendor.ID,
		VendorName: vendor.Name,
		BillDate:   billDate,
		DueDate:    dueDate,
		Status:     StatusDraft,
		Memo:       in.Memo,
	}
	var totals []money.LineTotals
	for _, li := range in.Lines {
		line, lt, err := s.resolveLine(ctx, li)
		if err != nil {
			return Bill{}, err
		}
		b.Lines = append(b.Lines, line)
		totals = append(totals, lt)
	}
	sum := money.Summarize(totals)
	b.Subtotal = sum.Subtotal
	b.TaxTotal = sum.TaxTotal
	b.Total = sum.Total
	return b, nil
}

func (s *Service) resolveLine(ctx context.Context, in LineInput) (Line, money.LineTotals, error) {
	if in.Description == "" {
		return Line{}, money.LineTotals{}, shared.Validation("description", "line description is required")
	}
	if in.UnitPrice < 0 {
		return Line{}, money.LineTotals{}, shared.Validation("unit_price", "unit price must not be negative")
	}

	taxPercent, err := s.resolveTaxPercent(ctx, in)
	if err != nil {
		return Line{}, money.LineTotals{}, err
	}

	expenseAccount, err := s.resolveExpenseAccount(ctx, in)
	if err != nil {
		return Line{}, money.LineTotals{}, err
	}

	lt, err := money.Valuate(money.Line{
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Discount:   in.Discount,
		TaxPercent: taxPercent,
	})
	if err != nil {
		return Line{}, money.LineTotals{}, err
	}

	return Line{
		Description:      in.Description,
		Quantity:         in.Quantity,
		UnitPrice:        in.UnitPrice,
		Discount:         in.Discount,
		TaxPercent:       taxPercent,
		ExpenseAccountID: expenseAccount,
		Net:              lt.Net,
		Tax:              lt.Tax,
		Total:            lt.Total,
	}, lt, nil
}

func (s *Service) resolveTaxPercent(ctx context.Context, in LineInput) (decimal.Decimal, error) {
	if in.TaxPercent != nil {
		return *in.TaxPercent, nil
	}
	if in.TaxID == nil {
		return decimal.Zero, nil
	}
	tax, err := s.taxes.Get(ctx, *in.TaxID)
	if err != nil {
		return decimal.Zero, shared.Validation("tax_id", "tax rate not found")
	}
	if !tax.IsActive {
		return decimal.Zero, shared.Validation("tax_id", "tax rate is inactive")
	}
	return tax.Percent, nil
}

func (s *Service) resolveExpenseAccount(ctx context.Context, in LineInput) (int64, error) {
	if in.ExpenseAccountID != nil {
		return s.resolver.RequireAccount(ctx, *in.ExpenseAccountID)
	}
	return s.resolver.Resolve(ctx, accounts.RoleOperatingExpenses)
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

package invoices

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/sequence"
	"github.com/clouderp/simplebooks/internal/shared"
)

// MemoryRepository is a test double for Repository. WithTx runs the callback
// against shared in-memory state without rollback; tests asserting failure
// paths check observable outcomes, not partial writes.
type MemoryRepository struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]Invoice
	nextLine int64

	Journal   *journal.MemoryRepository
	Payments  *payments.MemoryRepository
	Sequences *sequence.MemoryStore
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		invoices:  map[uuid.UUID]Invoice{},
		nextLine:  1,
		Journal:   journal.NewMemoryRepository(),
		Payments:  payments.NewMemoryRepository(),
		Sequences: sequence.NewMemoryStore(),
	}
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Invoice
	for _, inv := range r.invoices {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if f.CustomerID != 0 && inv.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (r *MemoryRepository) OpenItems(_ context.Context, asOf time.Time) ([]reports.OpenItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []reports.OpenItem
	for _, inv := range r.invoices {
		if !inv.Open() || inv.IssueDate.After(asOf) {
			continue
		}
		items = append(items, reports.OpenItem{
			DocumentID: inv.ID,
			Number:     inv.Number,
			PartyName:  inv.CustomerName,
			IssueDate:  inv.IssueDate,
			DueDate:    inv.DueDate,
			Total:      inv.Total,
			Balance:    inv.Balance(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DueDate.Before(items[j].DueDate) })
	return items, nil
}

type memoryTx struct {
	repo *MemoryRepository
}

func (t *memoryTx) Insert(_ context.Context, inv Invoice) (Invoice, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	for i := range inv.Lines {
		inv.Lines[i].ID = t.repo.nextLine
		t.repo.nextLine++
	}
	t.repo.invoices[inv.ID] = inv
	return inv, nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) ReplaceDraft(_ context.Context, inv Invoice) (Invoice, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	current, ok := t.repo.invoices[inv.ID]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	if current.Status != StatusDraft {
		return Invoice{}, shared.ErrInvalidState
	}
	for i := range inv.Lines {
		inv.Lines[i].ID = t.repo.nextLine
		t.repo.nextLine++
	}
	inv.UpdatedAt = time.Now()
	t.repo.invoices[inv.ID] = inv
	return inv, nil
}

func (t *memoryTx) MarkIssued(_ context.Context, id uuid.UUID, number string, status Status, issueDate, dueDate time.Time) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	inv, ok := t.repo.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Number = number
	inv.Status = status
	inv.IssueDate = issueDate
	inv.DueDate = dueDate
	inv.UpdatedAt = time.Now()
	t.repo.invoices[id] = inv
	return nil
}

func (t *memoryTx) UpdatePaymentState(_ context.Context, id uuid.UUID, paidTotal int64, status Status) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	inv, ok := t.repo.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.PaidTotal = paidTotal
	inv.Status = status
	inv.UpdatedAt = time.Now()
	t.repo.invoices[id] = inv
	return nil
}

func (t *memoryTx) MarkVoid(_ context.Context, id uuid.UUID) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	inv, ok := t.repo.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Status = StatusVoid
	inv.UpdatedAt = time.Now()
	t.repo.invoices[id] = inv
	return nil
}

func (t *memoryTx) NextDocumentNumber(ctx context.Context, issueDate time.Time) (string, error) {
	return sequence.NewAllocator(t.repo.Sequences).Allocate(ctx, sequence.KindInvoice, issueDate)
}

func (t *memoryTx) AppendEntry(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	return t.repo.Journal.Append(ctx, e)
}

func (t *memoryTx) EntriesFor(ctx context.Context, source journal.Source, ref uuid.UUID) ([]journal.Entry, error) {
	return t.repo.Journal.List(ctx, journal.Filter{Source: source, SourceRef: ref})
}

func (t *memoryTx) InsertPayment(ctx context.Context, p payments.Payment) (payments.Payment, error) {
	return t.repo.Payments.Create(ctx, p)
}

package bills

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
	bills    map[uuid.UUID]Bill
	nextLine int64

	Journal   *journal.MemoryRepository
	Payments  *payments.MemoryRepository
	Sequences *sequence.MemoryStore
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bills:     map[uuid.UUID]Bill{},
		nextLine:  1,
		Journal:   journal.NewMemoryRepository(),
		Payments:  payments.NewMemoryRepository(),
		Sequences: sequence.NewMemoryStore(),
	}
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Bill
	for _, b := range r.bills {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.VendorID != 0 && b.VendorID != f.VendorID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	return b, nil
}

func (r *MemoryRepository) OpenItems(_ context.Context, asOf time.Time) ([]reports.OpenItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []reports.OpenItem
	for _, b := range r.bills {
		if !b.Open() || b.BillDate.After(asOf) {
			continue
		}
		items = append(items, reports.OpenItem{
			DocumentID: b.ID,
			Number:     b.Number,
			PartyName:  b.VendorName,
			IssueDate:  b.BillDate,
			DueDate:    b.DueDate,
			Total:      b.Total,
			Balance:    b.Balance(),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].DueDate.Before(items[j].DueDate) })
	return items, nil
}

type memoryTx struct {
	repo *MemoryRepository
}

func (t *memoryTx) Insert(_ context.Context, b Bill) (Bill, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	for i := range b.Lines {
		b.Lines[i].ID = t.repo.nextLine
		t.repo.nextLine++
	}
	t.repo.bills[b.ID] = b
	return b, nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) ReplaceDraft(_ context.Context, b Bill) (Bill, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	current, ok := t.repo.bills[b.ID]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	if current.Status != StatusDraft {
		return Bill{}, shared.ErrInvalidState
	}
	for i := range b.Lines {
		b.Lines[i].ID = t.repo.nextLine
		t.repo.nextLine++
	}
	b.UpdatedAt = time.Now()
	t.repo.bills[b.ID] = b
	return b, nil
}

func (t *memoryTx) MarkApproved(_ context.Context, id uuid.UUID, number string, status Status, billDate, dueDate time.Time) error {
	return t.update(id, func(b *Bill) {
		b.Number = number
		b.Status = status
		b.BillDate = billDate
		b.DueDate = dueDate
	})
}

func (t *memoryTx) UpdatePaymentState(_ context.Context, id uuid.UUID, paidTotal int64, status Status) error {
	return t.update(id, func(b *Bill) {
		b.PaidTotal = paidTotal
		b.Status = status
	})
}

func (t *memoryTx) MarkVoid(_ context.Context, id uuid.UUID) error {
	return t.update(id, func(b *Bill) {
		b.Status = StatusVoid
	})
}

func (t *memoryTx) update(id uuid.UUID, fn func(*Bill)) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	b, ok := t.repo.bills[id]
	if !ok {
		return shared.ErrNotFound
	}
	fn(&b)
	b.UpdatedAt = time.Now()
	t.repo.bills[id] = b
	return nil
}

func (t *memoryTx) NextDocumentNumber(ctx context.Context, billDate time.Time) (string, error) {
	return sequence.NewAllocator(t.repo.Sequences).Allocate(ctx, sequence.KindBill, billDate)
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

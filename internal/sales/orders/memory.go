package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/sequence"
	"github.com/clouderp/simplebooks/internal/shared"
)

// MemoryRepository is a test double for Repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]Order
	nextLine int64

	Sequences *sequence.MemoryStore
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:    map[uuid.UUID]Order{},
		nextLine:  1,
		Sequences: sequence.NewMemoryStore(),
	}
}

func (r *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Order
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	return o, nil
}

type memoryTx struct {
	repo *MemoryRepository
}

func (t *memoryTx) Insert(_ context.Context, o Order) (Order, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	for i := range o.Lines {
		o.Lines[i].ID = t.repo.nextLine
		t.repo.nextLine++
	}
	t.repo.orders[o.ID] = o
	return o, nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) ReplaceDraft(_ context.Context, o Order) (Order, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	current, ok := t.repo.orders[o.ID]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	if current.Status != StatusDraft {
		return Order{}, shared.ErrInvalidState
	}
	for i := range o.Lines {
		o.Lines[i].ID = t.repo.nextLine
		t.repo.nextLine++
	}
	o.UpdatedAt = time.Now()
	t.repo.orders[o.ID] = o
	return o, nil
}

func (t *memoryTx) MarkConfirmed(_ context.Context, id uuid.UUID, number string) error {
	return t.update(id, func(o *Order) {
		o.Number = number
		o.Status = StatusConfirmed
	})
}

func (t *memoryTx) MarkInvoiced(_ context.Context, id, invoiceID uuid.UUID) error {
	return t.update(id, func(o *Order) {
		o.Status = StatusInvoiced
		o.InvoiceID = &invoiceID
	})
}

func (t *memoryTx) MarkVoid(_ context.Context, id uuid.UUID) error {
	return t.update(id, func(o *Order) {
		o.Status = StatusVoid
	})
}

func (t *memoryTx) update(id uuid.UUID, fn func(*Order)) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	o, ok := t.repo.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	fn(&o)
	o.UpdatedAt = time.Now()
	t.repo.orders[id] = o
	return nil
}

func (t *memoryTx) NextDocumentNumber(ctx context.Context, orderDate time.Time) (string, error) {
	return sequence.NewAllocator(t.repo.Sequences).Allocate(ctx, sequence.KindSalesOrder, orderDate)
}

package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/shared"
)

// MemoryRepository is an in-memory journal used by tests and by the memory
// document repositories.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries []Entry
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

// Append stores a built entry, enforcing the same once-per-source rule the
// database index enforces.
func (r *MemoryRepository) Append(_ context.Context, e Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oncePerSource(e.Source) {
		for _, existing := range r.entries {
			if existing.Source == e.Source && existing.SourceRef == e.SourceRef {
				return Entry{}, shared.ErrDuplicate
			}
		}
	}
	e.ID = r.nextID
	r.nextID++
	e.CreatedAt = time.Now()
	for i := range e.Lines {
		e.Lines[i].EntryID = e.ID
		e.Lines[i].ID = e.ID*100 + int64(i)
	}
	r.entries = append(r.entries, e)
	return e, nil
}

func oncePerSource(s Source) bool {
	switch s {
	case SourceInvoiceIssue, SourceInvoiceVoid, SourceBillApprove, SourceBillVoid:
		return true
	}
	return false
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if f.Source != "" && e.Source != f.Source {
			continue
		}
		if f.SourceRef != uuid.Nil && e.SourceRef != f.SourceRef {
			continue
		}
		if f.AccountID != 0 && !touchesAccount(e, f.AccountID) {
			continue
		}
		if f.From != nil && e.EntryDate.Before(*f.From) {
			continue
		}
		if f.To != nil && e.EntryDate.After(*f.To) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, shared.ErrNotFound
}

func (r *MemoryRepository) AccountTotals(_ context.Context, asOf time.Time) ([]AccountTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byAccount := make(map[int64]*AccountTotal)
	var order []int64
	for _, e := range r.entries {
		if e.EntryDate.After(asOf) {
			continue
		}
		for _, l := range e.Lines {
			t, ok := byAccount[l.AccountID]
			if !ok {
				t = &AccountTotal{AccountID: l.AccountID}
				byAccount[l.AccountID] = t
				order = append(order, l.AccountID)
			}
			t.Debit += l.Debit
			t.Credit += l.Credit
		}
	}
	totals := make([]AccountTotal, 0, len(order))
	for _, id := range order {
		totals = append(totals, *byAccount[id])
	}
	return totals, nil
}

func touchesAccount(e Entry, accountID int64) bool {
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			return true
		}
	}
	return false
}

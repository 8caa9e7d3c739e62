package accounts

import (
	"context"
	"sort"
	"sync"

	"github.com/clouderp/simplebooks/internal/shared"
)

// MemoryRepository is an in-memory Repository used by tests and by packages
// that need a chart of accounts without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]Account
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, accounts: map[int64]Account{}}
}

// NewSeededMemoryRepository constructs a MemoryRepository pre-loaded with the
// default system chart, mirroring what the seed script installs.
func NewSeededMemoryRepository() *MemoryRepository {
	r := NewMemoryRepository()
	for _, a := range DefaultChart() {
		r.Put(a)
	}
	return r
}

// Put inserts or replaces an account, assigning an id when absent.
func (r *MemoryRepository) Put(a Account) Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.nextID
		r.nextID++
	} else if a.ID >= r.nextID {
		r.nextID = a.ID + 1
	}
	r.accounts[a.ID] = a
	return a
}

func (r *MemoryRepository) List(_ context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepository) GetActiveByCode(_ context.Context, code string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Code == code && a.IsActive {
			return a, nil
		}
	}
	return Account{}, shared.ErrNotFound
}

// DefaultChart returns the system accounts every organisation starts with.
func DefaultChart() []Account {
	return []Account{
		{Code: "1010", Name: "Bank", Type: TypeAsset, IsSystem: true, IsActive: true},
		{Code: "1100", Name: "Accounts Receivable", Type: TypeAsset, IsSystem: true, IsActive: true},
		{Code: "2100", Name: "Accounts Payable", Type: TypeLiability, IsSystem: true, IsActive: true},
		{Code: "2610", Name: "Output VAT", Type: TypeLiability, IsSystem: true, IsActive: true},
		{Code: "3000", Name: "Owner Equity", Type: TypeEquity, IsSystem: true, IsActive: true},
		{Code: "4000", Name: "Sales Revenue", Type: TypeIncome, IsSystem: true, IsActive: true},
		{Code: "5300", Name: "Operating Expenses", Type: TypeExpense, IsSystem: true, IsActive: true},
		{Code: "5710", Name: "Input VAT", Type: TypeExpense, IsSystem: true, IsActive: true},
	}
}

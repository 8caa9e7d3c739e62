package payments

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clouderp/simplebooks/internal/ledger/journal"
)

// Filter narrows payment listings.
type Filter struct {
	Direction      Direction
	DocumentID     uuid.UUID
	CounterpartyID *int64
	From           *time.Time
	To             *time.Time
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]Payment, error)
	Create(ctx context.Context, p Payment) (Payment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// InsertPayment writes a payment row inside a caller-owned transaction. The
// document repositories use it so the payment and its journal entry commit
// together.
func InsertPayment(ctx context.Context, q journal.Querier, p Payment) (Payment, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := q.QueryRow(ctx, `INSERT INTO payments (id, direction, document_id, counterparty_id, amount, paid_at, method, reference, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at`,
		p.ID, p.Direction, p.DocumentID, p.CounterpartyID, p.Amount, p.PaidAt, p.Method, p.Reference, p.Memo).
		Scan(&p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Payment) (Payment, error) {
	return InsertPayment(ctx, r.pool, p)
}

func (r *repository) List(ctx context.Context, f Filter) ([]Payment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Direction != "" {
		where = append(where, "direction = "+arg(f.Direction))
	}
	if f.DocumentID != uuid.Nil {
		where = append(where, "document_id = "+arg(f.DocumentID))
	}
	if f.CounterpartyID != nil {
		where = append(where, "counterparty_id = "+arg(*f.CounterpartyID))
	}
	if f.From != nil {
		where = append(where, "paid_at >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "paid_at <= "+arg(*f.To))
	}
	sql := `SELECT id, direction, document_id, counterparty_id, amount, paid_at, method, reference, memo, created_at FROM payments`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY paid_at, created_at"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Direction, &p.DocumentID, &p.CounterpartyID, &p.Amount, &p.PaidAt, &p.Method, &p.Reference, &p.Memo, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MemoryRepository backs tests and the memory document repositories.
type MemoryRepository struct {
	mu       sync.RWMutex
	payments []Payment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, p Payment) (Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.payments = append(r.payments, p)
	return p, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Payment
	for _, p := range r.payments {
		if f.Direction != "" && p.Direction != f.Direction {
			continue
		}
		if f.DocumentID != uuid.Nil && (p.DocumentID == nil || *p.DocumentID != f.DocumentID) {
			continue
		}
		if f.CounterpartyID != nil && (p.CounterpartyID == nil || *p.CounterpartyID != *f.CounterpartyID) {
			continue
		}
		if f.From != nil && p.PaidAt.Before(*f.From) {
			continue
		}
		if f.To != nil && p.PaidAt.After(*f.To) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

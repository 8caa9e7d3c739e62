package taxes

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clouderp/simplebooks/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Tax, error)
	Get(ctx context.Context, id int64) (Tax, error)
	Create(ctx context.Context, tax Tax) (Tax, error)
	Update(ctx context.Context, tax Tax) (Tax, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Tax, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, percent, is_active, created_at, updated_at FROM tax_rates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var taxes []Tax
	for rows.Next() {
		var t Tax
		if err := rows.Scan(&t.ID, &t.Name, &t.Percent, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		taxes = append(taxes, t)
	}
	return taxes, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Tax, error) {
	var t Tax
	err := r.pool.QueryRow(ctx, `SELECT id, name, percent, is_active, created_at, updated_at FROM tax_rates WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.Percent, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tax{}, shared.ErrNotFound
		}
		return Tax{}, err
	}
	return t, nil
}

func (r *repository) Create(ctx context.Context, tax Tax) (Tax, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO tax_rates (name, percent, is_active) VALUES ($1,$2,$3)
RETURNING id, created_at, updated_at`, tax.Name, tax.Percent, tax.IsActive).
		Scan(&tax.ID, &tax.CreatedAt, &tax.UpdatedAt)
	return tax, err
}

func (r *repository) Update(ctx context.Context, tax Tax) (Tax, error) {
	err := r.pool.QueryRow(ctx, `UPDATE tax_rates SET name=$2, percent=$3, is_active=$4, updated_at=NOW()
WHERE id=$1 RETURNING created_at, updated_at`, tax.ID, tax.Name, tax.Percent, tax.IsActive).
		Scan(&tax.CreatedAt, &tax.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tax{}, shared.ErrNotFound
		}
		return Tax{}, err
	}
	return tax, nil
}

// MemoryRepository backs tests that need tax rates without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	taxes  map[int64]Tax
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, taxes: map[int64]Tax{}}
}

func (r *MemoryRepository) List(_ context.Context) ([]Tax, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tax, 0, len(r.taxes))
	for _, t := range r.taxes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Tax, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.taxes[id]
	if !ok {
		return Tax{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) Create(_ context.Context, tax Tax) (Tax, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tax.ID = r.nextID
	r.nextID++
	r.taxes[tax.ID] = tax
	return tax, nil
}

func (r *MemoryRepository) Update(_ context.Context, tax Tax) (Tax, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taxes[tax.ID]; !ok {
		return Tax{}, shared.ErrNotFound
	}
	r.taxes[tax.ID] = tax
	return tax, nil
}

package vendors

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
	List(ctx context.Context, search string) ([]Vendor, error)
	Get(ctx context.Context, id int64) (Vendor, error)
	Create(ctx context.Context, c Vendor) (Vendor, error)
	Update(ctx context.Context, c Vendor) (Vendor, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, search string) ([]Vendor, error) {
	query := `SELECT id, name, email, phone, address, is_active, created_at, updated_at FROM vendors`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vendor
	for rows.Next() {
		var c Vendor
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Vendor, error) {
	var c Vendor
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, phone, address, is_active, created_at, updated_at FROM vendors WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, shared.ErrNotFound
		}
		return Vendor{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, c Vendor) (Vendor, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO vendors (name, email, phone, address, is_active)
VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at`, c.Name, c.Email, c.Phone, c.Address, c.IsActive).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) Update(ctx context.Context, c Vendor) (Vendor, error) {
	err := r.pool.QueryRow(ctx, `UPDATE vendors SET name=$2, email=$3, phone=$4, address=$5, is_active=$6, updated_at=NOW()
WHERE id=$1 RETURNING created_at, updated_at`, c.ID, c.Name, c.Email, c.Phone, c.Address, c.IsActive).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vendor{}, shared.ErrNotFound
		}
		return Vendor{}, err
	}
	return c, nil
}

// MemoryRepository backs tests without a database.
type MemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	vendors map[int64]Vendor
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, vendors: map[int64]Vendor{}}
}

func (r *MemoryRepository) List(_ context.Context, search string) ([]Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Vendor, 0, len(r.vendors))
	for _, c := range r.vendors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.vendors[id]
	if !ok {
		return Vendor{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepository) Create(_ context.Context, c Vendor) (Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	r.vendors[c.ID] = c
	return c, nil
}

func (r *MemoryRepository) Update(_ context.Context, c Vendor) (Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vendors[c.ID]; !ok {
		return Vendor{}, shared.ErrNotFound
	}
	r.vendors[c.ID] = c
	return c, nil
}

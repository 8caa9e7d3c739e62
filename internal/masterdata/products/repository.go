package products

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
	List(ctx context.Context, search string) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, sku, name, unit_price, income_account_id, default_tax_id, is_service, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, search string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR sku ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY sku`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.IncomeAccountID, &p.DefaultTaxID, &p.IsService, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.UnitPrice, &p.IncomeAccountID, &p.DefaultTaxID, &p.IsService, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO products (sku, name, unit_price, income_account_id, default_tax_id, is_service, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at, updated_at`,
		p.SKU, p.Name, p.UnitPrice, p.IncomeAccountID, p.DefaultTaxID, p.IsService, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, mapDuplicateSKU(err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	err := r.pool.QueryRow(ctx, `UPDATE products SET sku=$2, name=$3, unit_price=$4, income_account_id=$5, default_tax_id=$6, is_service=$7, is_active=$8, updated_at=NOW()
WHERE id=$1 RETURNING created_at, updated_at`,
		p.ID, p.SKU, p.Name, p.UnitPrice, p.IncomeAccountID, p.DefaultTaxID, p.IsService, p.IsActive).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, mapDuplicateSKU(err)
	}
	return p, nil
}

// MemoryRepository backs tests without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1, products: map[int64]Product{}}
}

func (r *MemoryRepository) List(_ context.Context, search string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.products {
		if existing.SKU == p.SKU {
			return Product{}, shared.ErrDuplicate
		}
	}
	p.ID = r.nextID
	r.nextID++
	r.products[p.ID] = p
	return p, nil
}

func (r *MemoryRepository) Update(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return Product{}, shared.ErrNotFound
	}
	r.products[p.ID] = p
	return p, nil
}

package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clouderp/simplebooks/internal/sequence"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Filter narrows order listings.
type Filter struct {
	Status     Status
	CustomerID int64
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

type TxRepository interface {
	Insert(ctx context.Context, o Order) (Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (Order, error)
	ReplaceDraft(ctx context.Context, o Order) (Order, error)
	MarkConfirmed(ctx context.Context, id uuid.UUID, number string) error
	MarkInvoiced(ctx context.Context, id, invoiceID uuid.UUID) error
	MarkVoid(ctx context.Context, id uuid.UUID) error
	NextDocumentNumber(ctx context.Context, orderDate time.Time) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, number, customer_id, customer_name, order_date, status, subtotal, tax_total, total, invoice_id, memo, created_at, updated_at`

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var number *string
	err := row.Scan(&o.ID, &number, &o.CustomerID, &o.CustomerName, &o.OrderDate, &o.Status,
		&o.Subtotal, &o.TaxTotal, &o.Total, &o.InvoiceID, &o.Memo, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	if number != nil {
		o.Number = *number
	}
	return o, nil
}

func loadOrderLines(ctx context.Context, q rowQuerier, ids []uuid.UUID) (map[uuid.UUID][]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, order_id, product_id, description, quantity, unit_price, discount, tax_percent, income_account_id, net, tax, total
FROM sales_order_lines WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make(map[uuid.UUID][]Line)
	for rows.Next() {
		var l Line
		var orderID uuid.UUID
		if err := rows.Scan(&l.ID, &orderID, &l.ProductID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.Discount, &l.TaxPercent, &l.IncomeAccountID, &l.Net, &l.Tax, &l.Total); err != nil {
			return nil, err
		}
		lines[orderID] = append(lines[orderID], l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, f Filter) ([]Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM sales_orders`
	var args []any
	switch {
	case f.Status != "" && f.CustomerID != 0:
		sql += ` WHERE status=$1 AND customer_id=$2`
		args = []any{f.Status, f.CustomerID}
	case f.Status != "":
		sql += ` WHERE status=$1`
		args = []any{f.Status}
	case f.CustomerID != 0:
		sql += ` WHERE customer_id=$1`
		args = []any{f.CustomerID}
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	var ids []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	lines, err := loadOrderLines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id=$1`, id))
	if err != nil {
		return Order{}, err
	}
	lines, err := loadOrderLines(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines[id]
	return o, nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, o Order) (Order, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO sales_orders (id, customer_id, customer_name, order_date, status, subtotal, tax_total, total, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at, updated_at`,
		o.ID, o.CustomerID, o.CustomerName, o.OrderDate, o.Status, o.Subtotal, o.TaxTotal, o.Total, o.Memo).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := r.insertLines(ctx, o.ID, o.Lines); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *txRepository) insertLines(ctx context.Context, orderID uuid.UUID, lines []Line) error {
	for i := range lines {
		line := &lines[i]
		err := r.tx.QueryRow(ctx, `INSERT INTO sales_order_lines (order_id, product_id, description, quantity, unit_price, discount, tax_percent, income_account_id, net, tax, total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
			orderID, line.ProductID, line.Description, line.Quantity, line.UnitPrice, line.Discount,
			line.TaxPercent, line.IncomeAccountID, line.Net, line.Tax, line.Total).
			Scan(&line.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM sales_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Order{}, err
	}
	lines, err := loadOrderLines(ctx, r.tx, []uuid.UUID{id})
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines[id]
	return o, nil
}

func (r *txRepository) ReplaceDraft(ctx context.Context, o Order) (Order, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE sales_orders SET customer_id=$2, customer_name=$3, order_date=$4, subtotal=$5, tax_total=$6, total=$7, memo=$8, updated_at=NOW()
WHERE id=$1 AND status='draft'`,
		o.ID, o.CustomerID, o.CustomerName, o.OrderDate, o.Subtotal, o.TaxTotal, o.Total, o.Memo)
	if err != nil {
		return Order{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Order{}, shared.ErrInvalidState
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM sales_order_lines WHERE order_id=$1`, o.ID); err != nil {
		return Order{}, err
	}
	if err := r.insertLines(ctx, o.ID, o.Lines); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *txRepository) MarkConfirmed(ctx context.Context, id uuid.UUID, number string) error {
	return r.exec(ctx, `UPDATE sales_orders SET number=$2, status='confirmed', updated_at=NOW() WHERE id=$1`, id, number)
}

func (r *txRepository) MarkInvoiced(ctx context.Context, id, invoiceID uuid.UUID) error {
	return r.exec(ctx, `UPDATE sales_orders SET status='invoiced', invoice_id=$2, updated_at=NOW() WHERE id=$1`, id, invoiceID)
}

func (r *txRepository) MarkVoid(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `UPDATE sales_orders SET status='void', updated_at=NOW() WHERE id=$1`, id)
}

func (r *txRepository) exec(ctx context.Context, sql string, args ...any) error {
	cmd, err := r.tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) NextDocumentNumber(ctx context.Context, orderDate time.Time) (string, error) {
	return sequence.NewAllocator(sequence.NewPgTxStore(r.tx)).Allocate(ctx, sequence.KindSalesOrder, orderDate)
}

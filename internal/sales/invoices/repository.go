package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	"github.com/clouderp/simplebooks/internal/payments"
	"github.com/clouderp/simplebooks/internal/sequence"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Filter narrows invoice listings.
type Filter struct {
	Status     Status
	CustomerID int64
}

// Repository encapsulates invoice persistence. Mutations run through WithTx
// so the document row, its journal entry, the sequence counter and any
// payment row commit or roll back together.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (Invoice, error)
	OpenItems(ctx context.Context, asOf time.Time) ([]reports.OpenItem, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available inside one transaction.
type TxRepository interface {
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error)
	ReplaceDraft(ctx context.Context, inv Invoice) (Invoice, error)
	MarkIssued(ctx context.Context, id uuid.UUID, number string, status Status, issueDate, dueDate time.Time) error
	UpdatePaymentState(ctx context.Context, id uuid.UUID, paidTotal int64, status Status) error
	MarkVoid(ctx context.Context, id uuid.UUID) error
	NextDocumentNumber(ctx context.Context, issueDate time.Time) (string, error)
	AppendEntry(ctx context.Context, e journal.Entry) (journal.Entry, error)
	EntriesFor(ctx context.Context, source journal.Source, ref uuid.UUID) ([]journal.Entry, error)
	InsertPayment(ctx context.Context, p payments.Payment) (payments.Payment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
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

const invoiceColumns = `id, number, customer_id, customer_name, issue_date, due_date, status, subtotal, tax_total, total, paid_total, memo, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var number *string
	err := row.Scan(&inv.ID, &number, &inv.CustomerID, &inv.CustomerName, &inv.IssueDate, &inv.DueDate,
		&inv.Status, &inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.PaidTotal, &inv.Memo, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	if number != nil {
		inv.Number = *number
	}
	return inv, nil
}

func loadInvoiceLines(ctx context.Context, q journal.Querier, ids []uuid.UUID) (map[uuid.UUID][]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, product_id, description, quantity, unit_price, discount, tax_percent, income_account_id, net, tax, total
FROM invoice_lines WHERE invoice_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make(map[uuid.UUID][]Line)
	for rows.Next() {
		var l Line
		var invoiceID uuid.UUID
		if err := rows.Scan(&l.ID, &invoiceID, &l.ProductID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.Discount, &l.TaxPercent, &l.IncomeAccountID, &l.Net, &l.Tax, &l.Total); err != nil {
			return nil, err
		}
		lines[invoiceID] = append(lines[invoiceID], l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, f Filter) ([]Invoice, error) {
	sql := `SELECT ` + invoiceColumns + ` FROM invoices`
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
	var out []Invoice
	var ids []uuid.UUID
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	lines, err := loadInvoiceLines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id))
	if err != nil {
		return Invoice{}, err
	}
	lines, err := loadInvoiceLines(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines = lines[id]
	return inv, nil
}

func (r *repository) OpenItems(ctx context.Context, asOf time.Time) ([]reports.OpenItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, customer_name, issue_date, due_date, total, total - paid_total
FROM invoices WHERE status IN ('issued','partially_paid') AND issue_date <= $1 ORDER BY due_date`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []reports.OpenItem
	for rows.Next() {
		var item reports.OpenItem
		if err := rows.Scan(&item.DocumentID, &item.Number, &item.PartyName, &item.IssueDate, &item.DueDate, &item.Total, &item.Balance); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO invoices (id, customer_id, customer_name, issue_date, due_date, status, subtotal, tax_total, total, paid_total, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10) RETURNING created_at, updated_at`,
		inv.ID, inv.CustomerID, inv.CustomerName, inv.IssueDate, inv.DueDate, inv.Status,
		inv.Subtotal, inv.TaxTotal, inv.Total, inv.Memo).
		Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	if err := r.insertLines(ctx, inv.ID, inv.Lines); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) insertLines(ctx context.Context, invoiceID uuid.UUID, lines []Line) error {
	for i := range lines {
		line := &lines[i]
		err := r.tx.QueryRow(ctx, `INSERT INTO invoice_lines (invoice_id, product_id, description, quantity, unit_price, discount, tax_percent, income_account_id, net, tax, total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
			invoiceID, line.ProductID, line.Description, line.Quantity, line.UnitPrice, line.Discount,
			line.TaxPercent, line.IncomeAccountID, line.Net, line.Tax, line.Total).
			Scan(&line.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := scanInvoice(r.tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Invoice{}, err
	}
	lines, err := loadInvoiceLines(ctx, r.tx, []uuid.UUID{id})
	if err != nil {
		return Invoice{}, err
	}
	inv.Lines = lines[id]
	return inv, nil
}

func (r *txRepository) ReplaceDraft(ctx context.Context, inv Invoice) (Invoice, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET customer_id=$2, customer_name=$3, issue_date=$4, due_date=$5, subtotal=$6, tax_total=$7, total=$8, memo=$9, updated_at=NOW()
WHERE id=$1 AND status='draft'`,
		inv.ID, inv.CustomerID, inv.CustomerName, inv.IssueDate, inv.DueDate, inv.Subtotal, inv.TaxTotal, inv.Total, inv.Memo)
	if err != nil {
		return Invoice{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Invoice{}, shared.ErrInvalidState
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id=$1`, inv.ID); err != nil {
		return Invoice{}, err
	}
	if err := r.insertLines(ctx, inv.ID, inv.Lines); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (r *txRepository) MarkIssued(ctx context.Context, id uuid.UUID, number string, status Status, issueDate, dueDate time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET number=$2, status=$3, issue_date=$4, due_date=$5, updated_at=NOW() WHERE id=$1`,
		id, number, status, issueDate, dueDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdatePaymentState(ctx context.Context, id uuid.UUID, paidTotal int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET paid_total=$2, status=$3, updated_at=NOW() WHERE id=$1`, id, paidTotal, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) MarkVoid(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE invoices SET status='void', updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) NextDocumentNumber(ctx context.Context, issueDate time.Time) (string, error) {
	return sequence.NewAllocator(sequence.NewPgTxStore(r.tx)).Allocate(ctx, sequence.KindInvoice, issueDate)
}

func (r *txRepository) AppendEntry(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	return journal.AppendEntry(ctx, r.tx, e)
}

func (r *txRepository) EntriesFor(ctx context.Context, source journal.Source, ref uuid.UUID) ([]journal.Entry, error) {
	return journal.ListTx(ctx, r.tx, journal.Filter{Source: source, SourceRef: ref})
}

func (r *txRepository) InsertPayment(ctx context.Context, p payments.Payment) (payments.Payment, error) {
	return payments.InsertPayment(ctx, r.tx, p)
}

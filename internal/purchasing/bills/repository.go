package bills

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

// Filter narrows bill listings.
type Filter struct {
	Status   Status
	VendorID int64
}

// Repository encapsulates bill persistence. Mutations run through WithTx so
// the document row, its journal entry, the sequence counter and any payment
// row commit or roll back together.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Bill, error)
	Get(ctx context.Context, id uuid.UUID) (Bill, error)
	OpenItems(ctx context.Context, asOf time.Time) ([]reports.OpenItem, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the mutations available inside one transaction.
type TxRepository interface {
	Insert(ctx context.Context, b Bill) (Bill, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (Bill, error)
	ReplaceDraft(ctx context.Context, b Bill) (Bill, error)
	MarkApproved(ctx context.Context, id uuid.UUID, number string, status Status, billDate, dueDate time.Time) error
	UpdatePaymentState(ctx context.Context, id uuid.UUID, paidTotal int64, status Status) error
	MarkVoid(ctx context.Context, id uuid.UUID) error
	NextDocumentNumber(ctx context.Context, billDate time.Time) (string, error)
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

const billColumns = `id, number, vendor_id, vendor_name, bill_date, due_date, status, subtotal, tax_total, total, paid_total, memo, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	var number *string
	err := row.Scan(&b.ID, &number, &b.VendorID, &b.VendorName, &b.BillDate, &b.DueDate,
		&b.Status, &b.Subtotal, &b.TaxTotal, &b.Total, &b.PaidTotal, &b.Memo, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, shared.ErrNotFound
		}
		return Bill{}, err
	}
	if number != nil {
		b.Number = *number
	}
	return b, nil
}

func loadBillLines(ctx context.Context, q journal.Querier, ids []uuid.UUID) (map[uuid.UUID][]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, bill_id, description, quantity, unit_price, discount, tax_percent, expense_account_id, net, tax, total
FROM bill_lines WHERE bill_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make(map[uuid.UUID][]Line)
	for rows.Next() {
		var l Line
		var billID uuid.UUID
		if err := rows.Scan(&l.ID, &billID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.Discount, &l.TaxPercent, &l.ExpenseAccountID, &l.Net, &l.Tax, &l.Total); err != nil {
			return nil, err
		}
		lines[billID] = append(lines[billID], l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, f Filter) ([]Bill, error) {
	sql := `SELECT ` + billColumns + ` FROM bills`
	var args []any
	switch {
	case f.Status != "" && f.VendorID != 0:
		sql += ` WHERE status=$1 AND vendor_id=$2`
		args = []any{f.Status, f.VendorID}
	case f.Status != "":
		sql += ` WHERE status=$1`
		args = []any{f.Status}
	case f.VendorID != 0:
		sql += ` WHERE vendor_id=$1`
		args = []any{f.VendorID}
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bill
	var ids []uuid.UUID
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	lines, err := loadBillLines(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
	if err != nil {
		return Bill{}, err
	}
	lines, err := loadBillLines(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return Bill{}, err
	}
	b.Lines = lines[id]
	return b, nil
}

func (r *repository) OpenItems(ctx context.Context, asOf time.Time) ([]reports.OpenItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, vendor_name, bill_date, due_date, total, total - paid_total
FROM bills WHERE status IN ('approved','partially_paid') AND bill_date <= $1 ORDER BY due_date`, asOf)
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

func (r *txRepository) Insert(ctx context.Context, b Bill) (Bill, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO bills (id, vendor_id, vendor_name, bill_date, due_date, status, subtotal, tax_total, total, paid_total, memo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10) RETURNING created_at, updated_at`,
		b.ID, b.VendorID, b.VendorName, b.BillDate, b.DueDate, b.Status,
		b.Subtotal, b.TaxTotal, b.Total, b.Memo).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Bill{}, err
	}
	if err := r.insertLines(ctx, b.ID, b.Lines); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (r *txRepository) insertLines(ctx context.Context, billID uuid.UUID, lines []Line) error {
	for i := range lines {
		line := &lines[i]
		err := r.tx.QueryRow(ctx, `INSERT INTO bill_lines (bill_id, description, quantity, unit_price, discount, tax_percent, expense_account_id, net, tax, total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
			billID, line.Description, line.Quantity, line.UnitPrice, line.Discount,
			line.TaxPercent, line.ExpenseAccountID, line.Net, line.Tax, line.Total).
			Scan(&line.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (Bill, error) {
	b, err := scanBill(r.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Bill{}, err
	}
	lines, err := loadBillLines(ctx, r.tx, []uuid.UUID{id})
	if err != nil {
		return Bill{}, err
	}
	b.Lines = lines[id]
	return b, nil
}

func (r *txRepository) ReplaceDraft(ctx context.Context, b Bill) (Bill, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET vendor_id=$2, vendor_name=$3, bill_date=$4, due_date=$5, subtotal=$6, tax_total=$7, total=$8, memo=$9, updated_at=NOW()
WHERE id=$1 AND status='draft'`,
		b.ID, b.VendorID, b.VendorName, b.BillDate, b.DueDate, b.Subtotal, b.TaxTotal, b.Total, b.Memo)
	if err != nil {
		return Bill{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Bill{}, shared.ErrInvalidState
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM bill_lines WHERE bill_id=$1`, b.ID); err != nil {
		return Bill{}, err
	}
	if err := r.insertLines(ctx, b.ID, b.Lines); err != nil {
		return Bill{}, err
	}
	return b, nil
}

func (r *txRepository) MarkApproved(ctx context.Context, id uuid.UUID, number string, status Status, billDate, dueDate time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET number=$2, status=$3, bill_date=$4, due_date=$5, updated_at=NOW() WHERE id=$1`,
		id, number, status, billDate, dueDate)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdatePaymentState(ctx context.Context, id uuid.UUID, paidTotal int64, status Status) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET paid_total=$2, status=$3, updated_at=NOW() WHERE id=$1`, id, paidTotal, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) MarkVoid(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE bills SET status='void', updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) NextDocumentNumber(ctx context.Context, billDate time.Time) (string, error) {
	return sequence.NewAllocator(sequence.NewPgTxStore(r.tx)).Allocate(ctx, sequence.KindBill, billDate)
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

package journal

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Repository reads the append-only journal.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	AccountTotals(ctx context.Context, asOf time.Time) ([]AccountTotal, error)
}

// Querier is the subset of pgx shared by pools and transactions, so entries
// can be appended inside a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// AppendEntry persists a built entry and its lines within q's transaction.
// A unique violation on the once-per-source index surfaces as ErrDuplicate,
// which callers treat as an idempotent replay.
func AppendEntry(ctx context.Context, q Querier, e Entry) (Entry, error) {
	err := q.QueryRow(ctx, `INSERT INTO journal_entries (entry_date, source, source_ref, memo)
VALUES ($1,$2,$3,$4) RETURNING id, created_at`, e.EntryDate, e.Source, e.SourceRef, e.Memo).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_once_per_source" {
			return Entry{}, shared.ErrDuplicate
		}
		return Entry{}, err
	}
	for i := range e.Lines {
		line := &e.Lines[i]
		line.EntryID = e.ID
		err := q.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit, credit)
VALUES ($1,$2,$3,$4) RETURNING id`, line.EntryID, line.AccountID, line.Debit, line.Credit).
			Scan(&line.ID)
		if err != nil {
			return Entry{}, err
		}
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, f Filter) ([]Entry, error) {
	return listEntries(ctx, r.db, f)
}

func (r *repository) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := r.db.QueryRow(ctx, `SELECT id, entry_date, source, source_ref, memo, created_at
FROM journal_entries WHERE id=$1`, id).
		Scan(&e.ID, &e.EntryDate, &e.Source, &e.SourceRef, &e.Memo, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrNotFound
		}
		return Entry{}, err
	}
	lines, err := loadLines(ctx, r.db, []int64{e.ID})
	if err != nil {
		return Entry{}, err
	}
	e.Lines = lines[e.ID]
	return e, nil
}

func (r *repository) AccountTotals(ctx context.Context, asOf time.Time) ([]AccountTotal, error) {
	rows, err := r.db.Query(ctx, `SELECT l.account_id, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.credit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.entry_date <= $1
GROUP BY l.account_id
ORDER BY l.account_id`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []AccountTotal
	for rows.Next() {
		var t AccountTotal
		if err := rows.Scan(&t.AccountID, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// ListTx lists entries inside a caller-owned transaction, used by lifecycle
// code that reverses a document's prior postings atomically.
func ListTx(ctx context.Context, q Querier, f Filter) ([]Entry, error) {
	return listEntries(ctx, q, f)
}

func listEntries(ctx context.Context, q Querier, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.Source != "" {
		where = append(where, "e.source = "+arg(f.Source))
	}
	if f.SourceRef != uuid.Nil {
		where = append(where, "e.source_ref = "+arg(f.SourceRef))
	}
	if f.AccountID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM journal_lines jl WHERE jl.entry_id = e.id AND jl.account_id = "+arg(f.AccountID)+")")
	}
	if f.From != nil {
		where = append(where, "e.entry_date >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "e.entry_date <= "+arg(*f.To))
	}
	sql := `SELECT e.id, e.entry_date, e.source, e.source_ref, e.memo, e.created_at FROM journal_entries e`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY e.id"
	if f.Limit > 0 {
		sql += " LIMIT " + arg(f.Limit)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	var ids []int64
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EntryDate, &e.Source, &e.SourceRef, &e.Memo, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	lines, err := loadLines(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = lines[entries[i].ID]
	}
	return entries, nil
}

func loadLines(ctx context.Context, q Querier, entryIDs []int64) (map[int64][]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit, credit
FROM journal_lines WHERE entry_id = ANY($1) ORDER BY id`, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make(map[int64][]Line)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		lines[l.EntryID] = append(lines[l.EntryID], l)
	}
	return lines, rows.Err()
}

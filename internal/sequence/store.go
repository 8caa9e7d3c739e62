package sequence

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const nextQuery = `
INSERT INTO document_sequences (kind, year, counter)
VALUES ($1, $2, 1)
ON CONFLICT (kind, year)
DO UPDATE SET counter = document_sequences.counter + 1
RETURNING counter`

// PgStore persists counters in the document_sequences table.
type PgStore struct {
	db interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	}
}

// NewPgStore constructs a PgStore over a pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{db: pool}
}

// NewPgTxStore constructs a PgStore bound to a transaction so the counter
// advance commits or rolls back with the surrounding document mutation.
func NewPgTxStore(tx pgx.Tx) *PgStore {
	return &PgStore{db: tx}
}

func (s *PgStore) Next(ctx context.Context, kind Kind, year int) (int64, error) {
	var counter int64
	if err := s.db.QueryRow(ctx, nextQuery, string(kind), year).Scan(&counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// MemoryStore keeps counters in memory. Used by tests and in-memory wiring.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]int64)}
}

func (s *MemoryStore) Next(ctx context.Context, kind Kind, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Format(kind, year, 0)
	s.counters[key]++
	return s.counters[key], nil
}

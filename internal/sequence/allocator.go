// Package sequence issues human-readable document numbers. Numbers are
// year-scoped per document kind: the first invoice issued in 2026 is
// INV-2026-0001. Counters only move forward; a mutation that aborts after
// allocation leaves a permanent gap, matching the accounting convention that
// document numbers are never reused.
package sequence

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies a numbered document series and doubles as its prefix.
type Kind string

const (
	KindInvoice    Kind = "INV"
	KindBill       Kind = "BILL"
	KindSalesOrder Kind = "SO"
)

// Store advances the counter for a (kind, year) pair and returns its value.
// The first call for a pair returns 1. Implementations must be safe under
// the same transaction as the document mutation they accompany.
type Store interface {
	Next(ctx context.Context, kind Kind, year int) (int64, error)
}

// Allocator formats document numbers from a counter store.
type Allocator struct {
	store Store
}

// NewAllocator constructs an Allocator.
func NewAllocator(store Store) *Allocator {
	return &Allocator{store: store}
}

// Allocate returns the next number in the series for the issue date's year.
func (a *Allocator) Allocate(ctx context.Context, kind Kind, issueDate time.Time) (string, error) {
	year := issueDate.Year()
	n, err := a.store.Next(ctx, kind, year)
	if err != nil {
		return "", fmt.Errorf("sequence: next %s/%d: %w", kind, year, err)
	}
	return Format(kind, year, n), nil
}

// Format renders a document number, e.g. INV-2026-0042.
func Format(kind Kind, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%04d", kind, year, n)
}

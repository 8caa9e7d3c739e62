// Package ledger holds primitives shared by the posting side of the system.
package ledger

import (
	"context"
	"sync"
)

// Gate serialises ledger mutations: document creation, lifecycle transitions,
// payment application and the journal postings they trigger all pass through
// one gate instance, so at most one mutation is in flight at a time and
// mutations apply in submission order. Reads do not take the gate; they see
// the last committed state through the repository layer.
type Gate struct {
	mu sync.Mutex
}

// NewGate constructs a Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Do runs fn under the gate. The context is checked before acquiring so a
// caller that already gave up does not queue a mutation.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(ctx)
}

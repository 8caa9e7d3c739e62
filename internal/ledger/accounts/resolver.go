package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Resolver maps logical account roles to concrete ledger accounts. A role
// that does not resolve is a fatal configuration problem, not user error:
// postings cannot proceed without it.
type Resolver struct {
	repo Repository
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the account id for a role, failing with
// AccountNotConfiguredError when no active account carries the role's code.
func (r *Resolver) Resolve(ctx context.Context, role Role) (int64, error) {
	code, ok := CodeForRole(role)
	if !ok {
		return 0, fmt.Errorf("accounts: unknown role %q", role)
	}
	account, err := r.repo.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, &shared.AccountNotConfiguredError{Role: string(role), Code: code}
		}
		return 0, err
	}
	return account.ID, nil
}

// RequireAccount verifies an explicitly referenced account exists and is
// active, returning its id. Used for per-line account overrides.
func (r *Resolver) RequireAccount(ctx context.Context, id int64) (int64, error) {
	account, err := r.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, fmt.Errorf("account %d: %w", id, shared.ErrNotFound)
		}
		return 0, err
	}
	if !account.IsActive {
		return 0, shared.Validationf("account_id", "account %s is inactive", account.Code)
	}
	return account.ID, nil
}

// EnsureSystemAccounts verifies every required system role resolves. Called
// at startup so a half-configured organisation fails loudly before it can
// accept postings.
func (r *Resolver) EnsureSystemAccounts(ctx context.Context) error {
	for _, role := range SystemRoles() {
		if _, err := r.Resolve(ctx, role); err != nil {
			return err
		}
	}
	return nil
}

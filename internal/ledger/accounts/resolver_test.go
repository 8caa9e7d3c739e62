package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/shared"
)

func TestResolveSystemRoles(t *testing.T) {
	ctx := context.Background()
	repo := NewSeededMemoryRepository()
	resolver := NewResolver(repo)

	for _, role := range SystemRoles() {
		id, err := resolver.Resolve(ctx, role)
		require.NoError(t, err, "role %s", role)
		require.NotZero(t, id)
	}
}

func TestResolveMissingAccount(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(NewMemoryRepository())

	_, err := resolver.Resolve(ctx, RoleBank)
	require.Error(t, err)
	require.True(t, shared.IsAccountNotConfigured(err))
}

func TestResolveIgnoresInactiveAccount(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	repo.Put(Account{Code: "1010", Name: "Bank", Type: TypeAsset, IsSystem: true, IsActive: false})
	resolver := NewResolver(repo)

	_, err := resolver.Resolve(ctx, RoleBank)
	require.True(t, shared.IsAccountNotConfigured(err))
}

func TestEnsureSystemAccounts(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, NewResolver(NewSeededMemoryRepository()).EnsureSystemAccounts(ctx))

	repo := NewSeededMemoryRepository()
	bank, err := repo.GetActiveByCode(ctx, "1010")
	require.NoError(t, err)
	bank.IsActive = false
	repo.Put(bank)
	require.Error(t, NewResolver(repo).EnsureSystemAccounts(ctx))
}

func TestRequireAccountInactive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	a := repo.Put(Account{Code: "6000", Name: "Misc", Type: TypeExpense, IsActive: false})

	_, err := NewResolver(repo).RequireAccount(ctx, a.ID)
	require.True(t, shared.IsValidation(err))
}

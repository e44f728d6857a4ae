package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/storage/memory"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
	"github.com/princekumarofficial/zcreens-service/internal/utils/password"
)

func TestEnsureAdminCreatesAccount(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	account, created, err := EnsureAdmin(ctx, store, AdminSpec{Email: " Admin@Admin.com ", Password: "admin123"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Administrator", account.Name)

	stored, hash, err := store.GetUserByEmail(ctx, "admin@admin.com")
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, stored.Role)
	assert.Equal(t, users.PlanBusiness, stored.Plan)
	assert.Equal(t, float64(AdminStorageLimitMB), stored.StorageLimitMB)
	assert.True(t, password.CheckPasswordHash("admin123", hash))

	again, created, err := EnsureAdmin(ctx, store, AdminSpec{Email: "admin@admin.com", Password: "other-password"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, account.ID, again.ID)
}

func TestEnsureAdminPromotesExistingAccount(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	existing, err := store.CreateUser(ctx, "Ada", "ada@example.com", "keep-me")
	require.NoError(t, err)

	account, created, err := EnsureAdmin(ctx, store, AdminSpec{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, account.ID)

	stored, hash, err := store.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())
	assert.Equal(t, users.PlanStarter, stored.Plan)
	assert.Equal(t, "keep-me", hash)
}

func TestEnsureAdminValidatesInput(t *testing.T) {
	store := memory.New()

	_, _, err := EnsureAdmin(context.Background(), store, AdminSpec{Password: "admin123"})
	assert.Error(t, err)

	_, _, err = EnsureAdmin(context.Background(), store, AdminSpec{Email: "root@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	list, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

package database

import (
	"context"
	"testing"

	"military-logistics-api-server/config"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/models"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryCollection[models.User]()
	cfg := config.SeedConfig{AdminEmail: "Admin@Military.gov", AdminPassword: "change-me-now"}

	require.NoError(t, SeedAdmin(ctx, users, cfg))
	require.NoError(t, SeedAdmin(ctx, users, cfg))

	admins, err := users.Find(ctx, store.Eq("role", rbac.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@military.gov", admins[0].Email)
	assert.Equal(t, rbac.Headquarters, admins[0].Base)
	assert.True(t, auth.CheckPasswordHash("change-me-now", admins[0].PasswordHash))
}

func TestSeedAdminDisabledWithoutPassword(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryCollection[models.User]()

	require.NoError(t, SeedAdmin(ctx, users, config.SeedConfig{AdminEmail: "admin@military.gov"}))

	n, err := users.Count(ctx, store.All())
	require.NoError(t, err)
	assert.Zero(t, n)
}

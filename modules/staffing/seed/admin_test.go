package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/modules/staffing/infrastructure/persistence"
	"github.com/myscheduling/seedload/modules/staffing/seed"
)

func testAdmin() seed.Admin {
	return seed.Admin{
		Email:       seed.DefaultAdminEmail,
		DisplayName: seed.DefaultAdminDisplayName,
		Password:    "Admin@123",
		JobTitle:    seed.DefaultAdminJobTitle,
		Department:  seed.DefaultAdminDepartment,
		Cost:        bcrypt.MinCost,
	}
}

func TestAdmin_Apply(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	tenantID := uuid.New()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	id, err := testAdmin().Apply(ctx, store, tenantID, now)
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap.Users, 1)
	u := snap.Users[0]
	assert.Equal(t, id, u.ID)
	assert.True(t, u.IsSystemAdmin)
	assert.True(t, u.Active)
	require.NotNil(t, u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte("Admin@123")))
	require.NotNil(t, u.JobTitle)
	assert.Equal(t, seed.DefaultAdminJobTitle, *u.JobTitle)

	require.Len(t, snap.Memberships, 1)
	assert.Equal(t, domain.AdminRoles, snap.Memberships[0].Roles)
	assert.Equal(t, tenantID, snap.Memberships[0].TenantID)
}

func TestAdmin_ApplyTwiceKeepsOneAccount(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	tenantID := uuid.New()

	first, err := testAdmin().Apply(ctx, store, tenantID, time.Now())
	require.NoError(t, err)
	second, err := testAdmin().Apply(ctx, store, tenantID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	snap := store.Snapshot()
	assert.Len(t, snap.Users, 1)
	assert.Len(t, snap.Memberships, 1)
}

func TestAdmin_ApplyRequiresCredentials(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()

	a := testAdmin()
	a.Password = ""
	_, err := a.Apply(ctx, store, uuid.New(), time.Now())
	require.Error(t, err)

	a = testAdmin()
	a.Email = "  "
	_, err = a.Apply(ctx, store, uuid.New(), time.Now())
	require.Error(t, err)

	assert.Empty(t, store.Snapshot().Users)
}

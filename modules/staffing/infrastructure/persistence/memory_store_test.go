package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemoryStore_UpsertUserKeepsFirstID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := uuid.New()
	id, err := s.UpsertUser(ctx, domain.UserRecord{ID: first, Email: "a.b@x.com", DisplayName: "A B", Active: true, Now: testNow})
	require.NoError(t, err)
	require.Equal(t, first, id)

	id, err = s.UpsertUser(ctx, domain.UserRecord{ID: uuid.New(), Email: "a.b@x.com", DisplayName: "A Bee", Active: false, Status: domain.UserInactive, Now: testNow})
	require.NoError(t, err)
	assert.Equal(t, first, id)

	snap := s.Snapshot()
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "A Bee", snap.Users[0].DisplayName)
	assert.False(t, snap.Users[0].Active)
}

func TestMemoryStore_ProjectsAreNotUpdated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tenant := uuid.New()

	first := uuid.New()
	_, err := s.UpsertProject(ctx, domain.ProjectRecord{ID: first, TenantID: tenant, ProgramCode: "100", Name: "Old"})
	require.NoError(t, err)
	id, err := s.UpsertProject(ctx, domain.ProjectRecord{ID: uuid.New(), TenantID: tenant, ProgramCode: "100", Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, first, id)

	other, err := s.UpsertProject(ctx, domain.ProjectRecord{ID: uuid.New(), TenantID: uuid.New(), ProgramCode: "100"})
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	snap := s.Snapshot()
	require.Len(t, snap.Projects, 2)
	for _, p := range snap.Projects {
		if p.ID == first {
			assert.Equal(t, "Old", p.Name)
		}
	}
}

func TestMemoryStore_InsertActualHoursIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	user, wbs := uuid.New(), uuid.New()
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	fact := func(hours string) domain.ActualHoursRecord {
		return domain.ActualHoursRecord{
			ID:           uuid.New(),
			UserID:       user,
			WBSElementID: wbs,
			WorkDate:     day,
			Hours:        decimal.RequireFromString(hours),
			PayType:      "REG",
			PayTypeName:  "Regular",
		}
	}

	n, err := s.InsertActualHours(ctx, []domain.ActualHoursRecord{fact("4"), fact("4.00"), fact("6")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.InsertActualHours(ctx, []domain.ActualHoursRecord{fact("4"), fact("6")})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, s.Snapshot().Facts, 2)
}

func TestMemoryStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.UpsertTenant(ctx, "Acme", testNow)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.UpsertTenant(ctx, "Other", testNow); err != nil {
			return err
		}
		if _, err := s.UpsertUser(ctx, domain.UserRecord{ID: uuid.New(), Email: "x@y.z"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Tenants)
	assert.Empty(t, snap.Users)
}

func TestMemoryStore_InTxCommits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.InTx(ctx, func(ctx context.Context) error {
		_, err := s.UpsertTenant(ctx, "Acme", testNow)
		return err
	}))
	assert.Equal(t, 1, s.Snapshot().Tenants)
}

func TestMemoryStore_FailOn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.FailOn = func(op string) error {
		if op == "insert_assignments" {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := s.InsertAssignments(ctx, []domain.AssignmentRecord{{ID: uuid.New()}})
	require.Error(t, err)

	n, err := s.InsertAssignments(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_SetManager(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	emp, err := s.UpsertUser(ctx, domain.UserRecord{ID: uuid.New(), Email: "e@x.com"})
	require.NoError(t, err)
	mgr, err := s.UpsertUser(ctx, domain.UserRecord{ID: uuid.New(), Email: "m@x.com"})
	require.NoError(t, err)

	require.NoError(t, s.SetManager(ctx, emp, &mgr))
	got := s.Snapshot().Managers["e@x.com"]
	require.NotNil(t, got)
	assert.Equal(t, mgr, *got)

	require.NoError(t, s.SetManager(ctx, emp, nil))
	assert.Nil(t, s.Snapshot().Managers["e@x.com"])

	require.Error(t, s.SetManager(ctx, uuid.New(), nil))
}

func TestMemoryStore_ExistingAssignmentsByTenant(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tenant := uuid.New()
	pair := domain.AssignmentPair{UserID: uuid.New(), WBSElementID: uuid.New()}

	_, err := s.InsertAssignments(ctx, []domain.AssignmentRecord{
		{ID: uuid.New(), TenantID: tenant, UserID: pair.UserID, WBSElementID: pair.WBSElementID},
		{ID: uuid.New(), TenantID: uuid.New(), UserID: uuid.New(), WBSElementID: uuid.New()},
	})
	require.NoError(t, err)

	existing, err := s.ExistingAssignments(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, map[domain.AssignmentPair]struct{}{pair: {}}, existing)
}

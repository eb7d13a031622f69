package seed

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

const (
	DefaultAdminEmail       = "admin@admin.com"
	DefaultAdminDisplayName = "Platform Admin"
	DefaultAdminJobTitle    = "Platform Admin"
	DefaultAdminDepartment  = "Admin"
)

// Admin is the fixed administrative account provisioned on every run.
type Admin struct {
	Email       string
	DisplayName string
	Password    string
	JobTitle    string
	Department  string

	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func (a Admin) validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return errors.New("admin email is required")
	}
	if a.Password == "" {
		return errors.New("admin password is required")
	}
	return nil
}

func (a Admin) hashPassword() (string, error) {
	cost := a.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
	if err != nil {
		return "", errors.Wrap(err, "hash admin password")
	}
	return string(b), nil
}

// Apply upserts the admin user and its membership in tenantID and returns
// the admin's persisted id. The password hash is only written when the user
// is created.
func (a Admin) Apply(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) (uuid.UUID, error) {
	if err := a.validate(); err != nil {
		return uuid.Nil, err
	}
	hash, err := a.hashPassword()
	if err != nil {
		return uuid.Nil, err
	}
	jobTitle := a.JobTitle

	userID, err := store.UpsertUser(ctx, domain.UserRecord{
		ID:            uuid.New(),
		EntraObjectID: uuid.NewString(),
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PasswordHash:  &hash,
		IsSystemAdmin: true,
		Active:        true,
		JobTitle:      &jobTitle,
		Department:    a.Department,
		OrgUnit:       a.Department,
		Type:          domain.UserTypeEmployee,
		Status:        domain.UserActive,
		TenantID:      tenantID,
		Now:           now,
	})
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "upsert admin user %s", a.Email)
	}

	if err := store.UpsertMembership(ctx, domain.MembershipRecord{
		ID:       uuid.New(),
		UserID:   userID,
		TenantID: tenantID,
		Roles:    domain.AdminRoles,
		Active:   true,
		JoinedAt: now,
		Now:      now,
	}); err != nil {
		return uuid.Nil, errors.Wrapf(err, "upsert admin membership %s", a.Email)
	}
	return userID, nil
}

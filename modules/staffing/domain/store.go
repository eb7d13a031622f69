package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserRecord struct {
	ID            uuid.UUID
	EntraObjectID string
	Email         string
	DisplayName   string
	PasswordHash  *string
	IsSystemAdmin bool
	Active        bool
	DeactivatedAt *time.Time
	JobTitle      *string
	Department    string
	OrgUnit       string
	Type          UserType
	Status        UserStatus
	TenantID      uuid.UUID
	Now           time.Time
}

type MembershipRecord struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []AppRole
	Active   bool
	JoinedAt time.Time
	Now      time.Time
}

type ProjectRecord struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	ProgramCode string
	Start       time.Time
	End         time.Time
	Status      ProjectStatus
	Now         time.Time
}

type WBSRecord struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ProjectID      uuid.UUID
	Code           string
	Description    string
	Start          time.Time
	End            time.Time
	Type           WBSType
	Status         WBSStatus
	Billable       bool
	ApprovalStatus WBSApprovalStatus
	Now            time.Time
}

type AssignmentPair struct {
	UserID       uuid.UUID
	WBSElementID uuid.UUID
}

type AssignmentRecord struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	UserID          uuid.UUID
	WBSElementID    uuid.UUID
	AllocationPct   int
	Start           time.Time
	End             time.Time
	Status          AssignmentStatus
	IsPTOOrTraining bool
	Now             time.Time
}

type ActualHoursRecord struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	UserID       uuid.UUID
	WBSElementID uuid.UUID
	WorkDate     time.Time
	Hours        decimal.Decimal
	PayType      string
	PayTypeName  string
	BusinessUnit string
	ProjectCode  string
	ProjectName  string
	CreatedAt    time.Time
}

// Store is the persistence side of a load. Upserts are keyed on natural keys
// and return the persisted identifier, which is the record's ID only when the
// row was newly inserted.
type Store interface {
	EnsureSchema(ctx context.Context) error

	UpsertTenant(ctx context.Context, name string, now time.Time) (uuid.UUID, error)
	UpsertUser(ctx context.Context, u UserRecord) (uuid.UUID, error)
	UpsertMembership(ctx context.Context, m MembershipRecord) error
	SetManager(ctx context.Context, userID uuid.UUID, managerID *uuid.UUID) error
	UpsertProject(ctx context.Context, p ProjectRecord) (uuid.UUID, error)
	UpsertWBS(ctx context.Context, w WBSRecord) (uuid.UUID, error)

	ExistingAssignments(ctx context.Context, tenantID uuid.UUID) (map[AssignmentPair]struct{}, error)
	InsertAssignments(ctx context.Context, rows []AssignmentRecord) (int64, error)
	// InsertActualHours ignores rows that collide with the fact uniqueness
	// constraint and returns how many were actually stored.
	InsertActualHours(ctx context.Context, rows []ActualHoursRecord) (int64, error)
}

// Transactor runs fn in a single transaction: fn's error rolls back
// everything fn did through the Store.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Gateway interface {
	Store
	Transactor
}

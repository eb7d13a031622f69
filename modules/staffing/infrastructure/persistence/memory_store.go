package persistence

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

type memTenant struct {
	ID   uuid.UUID
	Name string
}

type memUser struct {
	domain.UserRecord
	ManagerID *uuid.UUID
	UpdatedAt time.Time
}

type memFactKey struct {
	UserID       uuid.UUID
	WBSElementID uuid.UUID
	WorkDate     time.Time
	Hours        string
	PayType      string
	PayTypeName  string
}

type projectKey struct {
	TenantID uuid.UUID
	Code     string
}

type membershipKey struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

type memState struct {
	tenants     map[string]memTenant
	users       map[string]*memUser
	memberships map[membershipKey]domain.MembershipRecord
	projects    map[projectKey]domain.ProjectRecord
	wbs         map[projectKey]domain.WBSRecord
	assignments []domain.AssignmentRecord
	facts       map[memFactKey]domain.ActualHoursRecord
	schemaReady bool
}

func newMemState() *memState {
	return &memState{
		tenants:     make(map[string]memTenant),
		users:       make(map[string]*memUser),
		memberships: make(map[membershipKey]domain.MembershipRecord),
		projects:    make(map[projectKey]domain.ProjectRecord),
		wbs:         make(map[projectKey]domain.WBSRecord),
		facts:       make(map[memFactKey]domain.ActualHoursRecord),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		tenants:     maps.Clone(s.tenants),
		users:       make(map[string]*memUser, len(s.users)),
		memberships: maps.Clone(s.memberships),
		projects:    maps.Clone(s.projects),
		wbs:         maps.Clone(s.wbs),
		assignments: append([]domain.AssignmentRecord(nil), s.assignments...),
		facts:       maps.Clone(s.facts),
		schemaReady: s.schemaReady,
	}
	for k, u := range s.users {
		cp := *u
		c.users[k] = &cp
	}
	return c
}

// MemoryStore is an in-process Gateway with the same natural keys and
// uniqueness rules as the Postgres schema. It backs dry runs and tests.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	inTx  bool

	// FailOn, when set, is consulted before every write; a non-nil error
	// aborts that write.
	FailOn func(op string) error
}

var _ domain.Gateway = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.inTx {
		m.mu.Unlock()
		return errors.New("memory store: nested transactions are not supported")
	}
	snapshot := m.state.clone()
	m.inTx = true
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx = false
	if err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *MemoryStore) check(op string) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn(op)
}

func (m *MemoryStore) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ensure_schema"); err != nil {
		return err
	}
	m.state.schemaReady = true
	return nil
}

func (m *MemoryStore) UpsertTenant(ctx context.Context, name string, now time.Time) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upsert_tenant"); err != nil {
		return uuid.Nil, err
	}
	if t, ok := m.state.tenants[name]; ok {
		return t.ID, nil
	}
	t := memTenant{ID: uuid.New(), Name: name}
	m.state.tenants[name] = t
	return t.ID, nil
}

func (m *MemoryStore) UpsertUser(ctx context.Context, u domain.UserRecord) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upsert_user"); err != nil {
		return uuid.Nil, err
	}
	if existing, ok := m.state.users[u.Email]; ok {
		existing.DisplayName = u.DisplayName
		existing.Active = u.Active
		existing.Status = u.Status
		existing.Department = u.Department
		existing.OrgUnit = u.OrgUnit
		existing.TenantID = u.TenantID
		existing.UpdatedAt = u.Now
		return existing.ID, nil
	}
	m.state.users[u.Email] = &memUser{UserRecord: u, UpdatedAt: u.Now}
	return u.ID, nil
}

func (m *MemoryStore) UpsertMembership(ctx context.Context, rec domain.MembershipRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upsert_membership"); err != nil {
		return err
	}
	key := membershipKey{UserID: rec.UserID, TenantID: rec.TenantID}
	if existing, ok := m.state.memberships[key]; ok {
		existing.Roles = append([]domain.AppRole(nil), rec.Roles...)
		existing.Active = rec.Active
		existing.Now = rec.Now
		m.state.memberships[key] = existing
		return nil
	}
	rec.Roles = append([]domain.AppRole(nil), rec.Roles...)
	m.state.memberships[key] = rec
	return nil
}

func (m *MemoryStore) SetManager(ctx context.Context, userID uuid.UUID, managerID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("set_manager"); err != nil {
		return err
	}
	for _, u := range m.state.users {
		if u.ID == userID {
			if managerID == nil {
				u.ManagerID = nil
			} else {
				id := *managerID
				u.ManagerID = &id
			}
			return nil
		}
	}
	return errors.Errorf("user %s not found", userID)
}

func (m *MemoryStore) UpsertProject(ctx context.Context, p domain.ProjectRecord) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upsert_project"); err != nil {
		return uuid.Nil, err
	}
	key := projectKey{TenantID: p.TenantID, Code: p.ProgramCode}
	if existing, ok := m.state.projects[key]; ok {
		return existing.ID, nil
	}
	m.state.projects[key] = p
	return p.ID, nil
}

func (m *MemoryStore) UpsertWBS(ctx context.Context, w domain.WBSRecord) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upsert_wbs"); err != nil {
		return uuid.Nil, err
	}
	key := projectKey{TenantID: w.TenantID, Code: w.Code}
	if existing, ok := m.state.wbs[key]; ok {
		return existing.ID, nil
	}
	m.state.wbs[key] = w
	return w.ID, nil
}

func (m *MemoryStore) ExistingAssignments(ctx context.Context, tenantID uuid.UUID) (map[domain.AssignmentPair]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.AssignmentPair]struct{})
	for _, a := range m.state.assignments {
		if a.TenantID == tenantID {
			out[domain.AssignmentPair{UserID: a.UserID, WBSElementID: a.WBSElementID}] = struct{}{}
		}
	}
	return out, nil
}

func (m *MemoryStore) InsertAssignments(ctx context.Context, rows []domain.AssignmentRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.check("insert_assignments"); err != nil {
		return 0, err
	}
	m.state.assignments = append(m.state.assignments, rows...)
	return int64(len(rows)), nil
}

func (m *MemoryStore) InsertActualHours(ctx context.Context, rows []domain.ActualHoursRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.check("insert_actual_hours"); err != nil {
		return 0, err
	}
	var inserted int64
	for _, r := range rows {
		key := memFactKey{
			UserID:       r.UserID,
			WBSElementID: r.WBSElementID,
			WorkDate:     r.WorkDate,
			// numeric(10,2) compares values rounded to cents
			Hours:       r.Hours.StringFixed(2),
			PayType:     r.PayType,
			PayTypeName: r.PayTypeName,
		}
		if _, dup := m.state.facts[key]; dup {
			continue
		}
		m.state.facts[key] = r
		inserted++
	}
	return inserted, nil
}

// Snapshot is a read-only view of the stored rows, for assertions and dry-run
// summaries.
type Snapshot struct {
	Tenants     int
	Users       []domain.UserRecord
	Managers    map[string]*uuid.UUID
	Memberships []domain.MembershipRecord
	Projects    []domain.ProjectRecord
	WBS         []domain.WBSRecord
	Assignments []domain.AssignmentRecord
	Facts       []domain.ActualHoursRecord
}

func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		Tenants:  len(m.state.tenants),
		Managers: make(map[string]*uuid.UUID, len(m.state.users)),
	}
	for email, u := range m.state.users {
		s.Users = append(s.Users, u.UserRecord)
		s.Managers[email] = u.ManagerID
	}
	for _, ms := range m.state.memberships {
		s.Memberships = append(s.Memberships, ms)
	}
	for _, p := range m.state.projects {
		s.Projects = append(s.Projects, p)
	}
	for _, w := range m.state.wbs {
		s.WBS = append(s.WBS, w)
	}
	s.Assignments = append(s.Assignments, m.state.assignments...)
	for _, f := range m.state.facts {
		s.Facts = append(s.Facts, f)
	}
	return s
}

package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/pkg/composables"
	"github.com/myscheduling/seedload/pkg/repo"
)

const (
	DefaultAssignmentPageSize = 500
	DefaultActualsPageSize    = 2000
)

// PgStore is the Postgres Gateway. Statements run on the transaction bound to
// the context by InTx, or directly on the pool outside of one.
type PgStore struct {
	pool               *pgxpool.Pool
	logger             logrus.FieldLogger
	assignmentPageSize int
	actualsPageSize    int
}

var _ domain.Gateway = (*PgStore)(nil)

type PgOption func(*PgStore)

func WithAssignmentPageSize(n int) PgOption {
	return func(s *PgStore) {
		if n > 0 {
			s.assignmentPageSize = n
		}
	}
}

func WithActualsPageSize(n int) PgOption {
	return func(s *PgStore) {
		if n > 0 {
			s.actualsPageSize = n
		}
	}
}

func NewPgStore(pool *pgxpool.Pool, logger logrus.FieldLogger, opts ...PgOption) *PgStore {
	s := &PgStore{
		pool:               pool,
		logger:             logger.WithField("component", "pg_store"),
		assignmentPageSize: DefaultAssignmentPageSize,
		actualsPageSize:    DefaultActualsPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PgStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InTx(composables.WithPool(ctx, s.pool), fn)
}

// conn returns the transaction opened by InTx, or the pool outside one.
func (s *PgStore) conn(ctx context.Context) (repo.Tx, error) {
	return composables.UseTx(composables.WithPool(ctx, s.pool))
}

func (s *PgStore) EnsureSchema(ctx context.Context) error {
	return migrate(ctx, s.pool, s.logger)
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgOptionalUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*id)
}

func pgDateOnlyUTC(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	y, m, d := t.UTC().Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func pgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil || t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func (s *PgStore) UpsertTenant(ctx context.Context, name string, now time.Time) (uuid.UUID, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM tenants WHERE name = $1 LIMIT 1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errors.Wrap(err, "select tenant")
	}

	id = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO tenants (id, name, status, created_at, is_deleted)
		VALUES ($1, $2, $3, $4, false)`,
		pgUUID(id), name, int(domain.TenantActive), now,
	); err != nil {
		return uuid.Nil, errors.Wrap(err, "insert tenant")
	}
	return id, nil
}

func (s *PgStore) UpsertUser(ctx context.Context, u domain.UserRecord) (uuid.UUID, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO users (
			id, entra_object_id, email, display_name, password_hash, is_system_admin,
			is_active, deactivated_at, failed_login_attempts,
			job_title, department, org_unit,
			type, status, manager_id, tenant_id,
			created_at, updated_at, is_deleted
		)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, 0,
			$9, $10, $11,
			$12, $13, NULL, $14,
			$15, $15, false
		)
		ON CONFLICT (email) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			is_active = EXCLUDED.is_active,
			status = EXCLUDED.status,
			department = EXCLUDED.department,
			org_unit = EXCLUDED.org_unit,
			tenant_id = EXCLUDED.tenant_id,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		pgUUID(u.ID), u.EntraObjectID, u.Email, u.DisplayName, u.PasswordHash, u.IsSystemAdmin,
		u.Active, pgTimestamptz(u.DeactivatedAt),
		u.JobTitle, u.Department, u.OrgUnit,
		int(u.Type), int(u.Status), pgUUID(u.TenantID),
		u.Now,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "upsert user %s", u.Email)
	}
	return id, nil
}

func (s *PgStore) UpsertMembership(ctx context.Context, m domain.MembershipRecord) error {
	tx, err := s.conn(ctx)
	if err != nil {
		return err
	}

	roles := make([]int, 0, len(m.Roles))
	for _, r := range m.Roles {
		roles = append(roles, int(r))
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return errors.Wrap(err, "marshal roles")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO tenant_memberships (
			id, user_id, tenant_id, roles, is_active, joined_at,
			created_at, updated_at, is_deleted
		)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $7, false)
		ON CONFLICT (user_id, tenant_id) DO UPDATE SET
			roles = EXCLUDED.roles,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		pgUUID(m.ID), pgUUID(m.UserID), pgUUID(m.TenantID), string(rolesJSON), m.Active, m.JoinedAt, m.Now,
	); err != nil {
		return errors.Wrap(err, "upsert membership")
	}
	return nil
}

func (s *PgStore) SetManager(ctx context.Context, userID uuid.UUID, managerID *uuid.UUID) error {
	tx, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET manager_id = $1 WHERE id = $2`, pgOptionalUUID(managerID), pgUUID(userID)); err != nil {
		return errors.Wrap(err, "update manager")
	}
	return nil
}

func (s *PgStore) UpsertProject(ctx context.Context, p domain.ProjectRecord) (uuid.UUID, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM projects WHERE tenant_id = $1 AND program_code = $2 LIMIT 1`,
		pgUUID(p.TenantID), p.ProgramCode,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errors.Wrap(err, "select project")
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (
			id, tenant_id, name, program_code, customer, start_date, end_date, status,
			created_at, updated_at, is_deleted
		)
		VALUES ($1, $2, $3, $4, NULL, $5, $6, $7, $8, $8, false)
		RETURNING id`,
		pgUUID(p.ID), pgUUID(p.TenantID), p.Name, p.ProgramCode,
		pgDateOnlyUTC(p.Start), pgDateOnlyUTC(p.End), int(p.Status), p.Now,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "insert project")
	}
	return id, nil
}

func (s *PgStore) UpsertWBS(ctx context.Context, w domain.WBSRecord) (uuid.UUID, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM wbs_elements WHERE tenant_id = $1 AND code = $2 LIMIT 1`,
		pgUUID(w.TenantID), w.Code,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, errors.Wrap(err, "select wbs element")
	}

	start, end := pgDateOnlyUTC(w.Start), pgDateOnlyUTC(w.End)
	err = tx.QueryRow(ctx, `
		INSERT INTO wbs_elements (
			id, tenant_id, project_id, code, description,
			valid_from, valid_to, start_date, end_date,
			type, status, is_billable,
			owner_user_id, approver_user_id, approval_status, approval_notes, approved_at,
			owner_id, approver_id,
			created_at, updated_at, is_deleted
		)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $6, $7,
			$8, $9, $10,
			NULL, NULL, $11, NULL, NULL,
			NULL, NULL,
			$12, $12, false
		)
		RETURNING id`,
		pgUUID(w.ID), pgUUID(w.TenantID), pgUUID(w.ProjectID), w.Code, w.Description,
		start, end,
		int(w.Type), int(w.Status), w.Billable,
		int(w.ApprovalStatus),
		w.Now,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "insert wbs element")
	}
	return id, nil
}

func (s *PgStore) ExistingAssignments(ctx context.Context, tenantID uuid.UUID) (map[domain.AssignmentPair]struct{}, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT user_id, wbs_element_id FROM assignments WHERE tenant_id = $1`, pgUUID(tenantID))
	if err != nil {
		return nil, errors.Wrap(err, "select assignments")
	}
	defer rows.Close()

	out := make(map[domain.AssignmentPair]struct{})
	for rows.Next() {
		var pair domain.AssignmentPair
		if err := rows.Scan(&pair.UserID, &pair.WBSElementID); err != nil {
			return nil, errors.Wrap(err, "scan assignment")
		}
		out[pair] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate assignments")
	}
	return out, nil
}

const insertAssignmentsPrefix = `INSERT INTO assignments (
	id, tenant_id, user_id, project_role_id, wbs_element_id,
	allocation_pct, start_date, end_date, status,
	is_pto_or_training, approved_by_user_id, approved_at,
	created_at, updated_at, is_deleted
)
VALUES `

func (s *PgStore) InsertAssignments(ctx context.Context, rows []domain.AssignmentRecord) (int64, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for start := 0; start < len(rows); start += s.assignmentPageSize {
		page := rows[start:min(start+s.assignmentPageSize, len(rows))]

		var sb strings.Builder
		sb.WriteString(insertAssignmentsPrefix)
		args := make([]any, 0, len(page)*10)
		for i, a := range page {
			if i > 0 {
				sb.WriteString(", ")
			}
			n := len(args)
			fmt.Fprintf(&sb, "($%d, $%d, $%d, NULL, $%d, $%d, $%d, $%d, $%d, $%d, NULL, NULL, $%d, $%d, false)",
				n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9, n+10, n+10)
			args = append(args,
				pgUUID(a.ID), pgUUID(a.TenantID), pgUUID(a.UserID), pgUUID(a.WBSElementID),
				a.AllocationPct, pgDateOnlyUTC(a.Start), pgDateOnlyUTC(a.End), int(a.Status),
				a.IsPTOOrTraining, a.Now,
			)
		}

		tag, err := tx.Exec(ctx, sb.String(), args...)
		if err != nil {
			return total, errors.Wrapf(err, "insert assignments page at %d", start)
		}
		total += tag.RowsAffected()
		s.logger.WithFields(logrus.Fields{"offset": start, "rows": len(page)}).Debug("assignments page inserted")
	}
	return total, nil
}

const insertActualHoursPrefix = `INSERT INTO actual_hours (
	id, tenant_id, user_id, wbs_element_id, work_date, hours,
	pay_type, pay_type_name, business_unit, project_code, project_name, created_at
)
VALUES `

func (s *PgStore) InsertActualHours(ctx context.Context, rows []domain.ActualHoursRecord) (int64, error) {
	tx, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for start := 0; start < len(rows); start += s.actualsPageSize {
		page := rows[start:min(start+s.actualsPageSize, len(rows))]

		var sb strings.Builder
		sb.WriteString(insertActualHoursPrefix)
		args := make([]any, 0, len(page)*12)
		for i, f := range page {
			if i > 0 {
				sb.WriteString(", ")
			}
			n := len(args)
			sb.WriteByte('(')
			for j := 1; j <= 12; j++ {
				if j > 1 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", n+j)
			}
			sb.WriteByte(')')
			args = append(args,
				pgUUID(f.ID), pgUUID(f.TenantID), pgUUID(f.UserID), pgUUID(f.WBSElementID),
				pgDateOnlyUTC(f.WorkDate), f.Hours.StringFixed(2),
				f.PayType, f.PayTypeName, f.BusinessUnit, f.ProjectCode, f.ProjectName, f.CreatedAt,
			)
		}
		sb.WriteString(" ON CONFLICT DO NOTHING")

		tag, err := tx.Exec(ctx, sb.String(), args...)
		if err != nil {
			return total, errors.Wrapf(err, "insert actual hours page at %d", start)
		}
		total += tag.RowsAffected()
		s.logger.WithFields(logrus.Fields{"offset": start, "rows": len(page), "inserted": tag.RowsAffected()}).Debug("actual hours page inserted")
	}
	return total, nil
}

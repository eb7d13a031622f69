package reconcile

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/myscheduling/seedload/modules/staffing/domain"
	"github.com/myscheduling/seedload/modules/staffing/seed"
	"github.com/myscheduling/seedload/pkg/textutil"
)

const (
	maxWBSCodeBytes        = 100
	maxWBSDescriptionBytes = 500

	DefaultTenantName = "Aleut Federal"
)

type Options struct {
	TenantName string
	Admin      *seed.Admin
	// Strict turns unresolved references into a failed, rolled back run.
	Strict bool

	Now   func() time.Time
	NewID func() uuid.UUID
}

type Engine struct {
	gateway domain.Gateway
	logger  logrus.FieldLogger
	opts    Options
}

func NewEngine(gateway domain.Gateway, logger logrus.FieldLogger, opts Options) *Engine {
	if opts.TenantName == "" {
		opts.TenantName = DefaultTenantName
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	return &Engine{
		gateway: gateway,
		logger:  logger.WithField("component", "reconcile"),
		opts:    opts,
	}
}

// Run ensures the schema and then applies ds in one transaction, in
// dependency order: tenant, users and memberships, manager links, projects,
// WBS elements, assignments, actual hours.
func (e *Engine) Run(ctx context.Context, ds *domain.Dataset) (*Report, error) {
	now := e.opts.Now()
	report := &Report{
		RunID:     e.opts.NewID(),
		StartedAt: now,
		Built:     ds.Counts(),
	}
	defer func() { report.Duration = e.opts.Now().Sub(now) }()

	if err := e.gateway.EnsureSchema(ctx); err != nil {
		return report, &StageError{Stage: StageSchema, Err: err}
	}

	err := e.gateway.InTx(ctx, func(ctx context.Context) error {
		return e.apply(ctx, ds, now, report)
	})
	if err != nil {
		report.discardWrites()
		return report, &StageError{Stage: StageReconcile, Err: err}
	}
	report.Committed = true
	return report, nil
}

func (e *Engine) apply(ctx context.Context, ds *domain.Dataset, now time.Time, report *Report) error {
	tenantID, err := e.gateway.UpsertTenant(ctx, e.opts.TenantName, now)
	if err != nil {
		return errors.Wrapf(err, "upsert tenant %q", e.opts.TenantName)
	}
	report.TenantID = tenantID
	log := e.logger.WithField("tenant", tenantID)

	if e.opts.Admin != nil {
		adminID, err := e.opts.Admin.Apply(ctx, e.gateway, tenantID, now)
		if err != nil {
			return err
		}
		report.AdminID = adminID
	}

	userIDs, err := e.applyUsers(ctx, ds, tenantID, now, report)
	if err != nil {
		return err
	}
	if err := e.applyManagers(ctx, ds, userIDs, report); err != nil {
		return err
	}
	wbsIDs, err := e.applyProjects(ctx, ds, tenantID, now, report)
	if err != nil {
		return err
	}
	if err := e.applyAssignments(ctx, ds, tenantID, userIDs, wbsIDs, now, report); err != nil {
		return err
	}
	if err := e.applyFacts(ctx, ds, tenantID, userIDs, wbsIDs, now, report); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"users":                report.UsersUpserted,
		"projects":             report.ProjectsUpserted,
		"wbs":                  report.WBSUpserted,
		"assignments_inserted": report.AssignmentsInserted,
		"facts_inserted":       report.FactsInserted,
		"facts_duplicate":      report.FactsDuplicate,
	}).Info("reconciliation applied")

	return e.checkUnresolved(log, ds, report)
}

func (e *Engine) applyUsers(ctx context.Context, ds *domain.Dataset, tenantID uuid.UUID, now time.Time, report *Report) (map[int64]uuid.UUID, error) {
	userIDs := make(map[int64]uuid.UUID, len(ds.Employees))
	for _, emp := range ds.Employees {
		status := domain.UserActive
		var deactivatedAt *time.Time
		if !emp.Active {
			status = domain.UserInactive
			deactivatedAt = emp.TerminationDate
		}
		id, err := e.gateway.UpsertUser(ctx, domain.UserRecord{
			ID:            e.opts.NewID(),
			EntraObjectID: e.opts.NewID().String(),
			Email:         emp.Email,
			DisplayName:   emp.DisplayName(),
			Active:        emp.Active,
			DeactivatedAt: deactivatedAt,
			Department:    emp.Department,
			OrgUnit:       emp.Department,
			Type:          domain.UserTypeEmployee,
			Status:        status,
			TenantID:      tenantID,
			Now:           now,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: upsert user %s", emp.FirstLine, emp.Email)
		}
		userIDs[emp.SourceID] = id

		if err := e.gateway.UpsertMembership(ctx, domain.MembershipRecord{
			ID:       e.opts.NewID(),
			UserID:   id,
			TenantID: tenantID,
			Roles:    domain.EmployeeRoles,
			Active:   emp.Active,
			JoinedAt: now,
			Now:      now,
		}); err != nil {
			return nil, errors.Wrapf(err, "line %d: upsert membership %s", emp.FirstLine, emp.Email)
		}
		report.UsersUpserted++
	}
	return userIDs, nil
}

func (e *Engine) applyManagers(ctx context.Context, ds *domain.Dataset, userIDs map[int64]uuid.UUID, report *Report) error {
	report.UnresolvedManagers = len(ds.UnresolvedManagers)
	for _, link := range ds.ManagerLinks {
		userID, ok := userIDs[link.EmployeeID]
		if !ok {
			continue
		}
		var managerID *uuid.UUID
		if link.ManagerID != nil {
			if id, ok := userIDs[*link.ManagerID]; ok {
				managerID = &id
			} else {
				report.UnresolvedManagers++
			}
		}
		if err := e.gateway.SetManager(ctx, userID, managerID); err != nil {
			return errors.Wrapf(err, "set manager of employee %d", link.EmployeeID)
		}
		if managerID != nil {
			report.ManagersLinked++
		} else {
			report.Roots++
		}
	}
	return nil
}

// applyProjects upserts projects and their WBS elements and returns WBS ids
// keyed by source code.
func (e *Engine) applyProjects(ctx context.Context, ds *domain.Dataset, tenantID uuid.UUID, now time.Time, report *Report) (map[string]uuid.UUID, error) {
	projectIDs := make(map[string]uuid.UUID, len(ds.Projects))
	for _, p := range ds.Projects {
		id, err := e.gateway.UpsertProject(ctx, domain.ProjectRecord{
			ID:          e.opts.NewID(),
			TenantID:    tenantID,
			Name:        p.Name,
			ProgramCode: p.Code,
			Start:       p.Dates.Start,
			End:         p.Dates.End,
			Status:      domain.ProjectActive,
			Now:         now,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "upsert project %s", p.Code)
		}
		projectIDs[p.Code] = id
		report.ProjectsUpserted++
	}

	wbsIDs := make(map[string]uuid.UUID, len(ds.WBS))
	for _, w := range ds.WBS {
		projectID, ok := projectIDs[w.ProjectCode]
		if !ok {
			return nil, errors.Wrapf(domain.ErrUnresolvedReference, "wbs %s: project %s", w.Code, w.ProjectCode)
		}
		id, err := e.gateway.UpsertWBS(ctx, domain.WBSRecord{
			ID:             e.opts.NewID(),
			TenantID:       tenantID,
			ProjectID:      projectID,
			Code:           textutil.Truncate(w.Code, maxWBSCodeBytes),
			Description:    textutil.Truncate(w.Description, maxWBSDescriptionBytes),
			Start:          w.Dates.Start,
			End:            w.Dates.End,
			Type:           domain.WBSBillable,
			Status:         domain.WBSActive,
			Billable:       true,
			ApprovalStatus: domain.WBSApproved,
			Now:            now,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "upsert wbs %s", w.Code)
		}
		wbsIDs[w.Code] = id
		report.WBSUpserted++
	}
	return wbsIDs, nil
}

// applyAssignments only creates assignments whose (user, wbs) pair is not
// already stored; existing assignments are never updated.
func (e *Engine) applyAssignments(
	ctx context.Context,
	ds *domain.Dataset,
	tenantID uuid.UUID,
	userIDs map[int64]uuid.UUID,
	wbsIDs map[string]uuid.UUID,
	now time.Time,
	report *Report,
) error {
	existing, err := e.gateway.ExistingAssignments(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "load existing assignments")
	}

	rows := make([]domain.AssignmentRecord, 0, len(ds.Assignments))
	for _, a := range ds.Assignments {
		userID, okUser := userIDs[a.Key.EmployeeID]
		wbsID, okWBS := wbsIDs[a.Key.WBSCode]
		if !okUser || !okWBS {
			report.AssignmentsUnresolved++
			continue
		}
		pair := domain.AssignmentPair{UserID: userID, WBSElementID: wbsID}
		if _, ok := existing[pair]; ok {
			report.AssignmentsExisting++
			continue
		}
		existing[pair] = struct{}{}
		rows = append(rows, domain.AssignmentRecord{
			ID:            e.opts.NewID(),
			TenantID:      tenantID,
			UserID:        userID,
			WBSElementID:  wbsID,
			AllocationPct: domain.DefaultAllocationPct,
			Start:         a.Dates.Start,
			End:           a.Dates.End,
			Status:        domain.AssignmentActive,
			Now:           now,
		})
	}

	n, err := e.gateway.InsertAssignments(ctx, rows)
	if err != nil {
		return errors.Wrap(err, "insert assignments")
	}
	report.AssignmentsInserted = n
	return nil
}

// applyFacts inserts every fact and lets the store's uniqueness constraint
// drop exact duplicates.
func (e *Engine) applyFacts(
	ctx context.Context,
	ds *domain.Dataset,
	tenantID uuid.UUID,
	userIDs map[int64]uuid.UUID,
	wbsIDs map[string]uuid.UUID,
	now time.Time,
	report *Report,
) error {
	rows := make([]domain.ActualHoursRecord, 0, len(ds.Facts))
	for _, f := range ds.Facts {
		userID, okUser := userIDs[f.EmployeeID]
		wbsID, okWBS := wbsIDs[f.WBSCode]
		if !okUser || !okWBS {
			report.FactsUnresolved++
			continue
		}
		rows = append(rows, domain.ActualHoursRecord{
			ID:           e.opts.NewID(),
			TenantID:     tenantID,
			UserID:       userID,
			WBSElementID: wbsID,
			WorkDate:     f.WorkDate,
			Hours:        f.Hours,
			PayType:      f.PayType,
			PayTypeName:  f.PayTypeName,
			BusinessUnit: f.BusinessUnit,
			ProjectCode:  f.ProjectCode,
			ProjectName:  f.ProjectName,
			CreatedAt:    now,
		})
	}
	report.FactsAttempted = int64(len(rows))

	n, err := e.gateway.InsertActualHours(ctx, rows)
	if err != nil {
		return errors.Wrap(err, "insert actual hours")
	}
	report.FactsInserted = n
	report.FactsDuplicate = report.FactsAttempted - n
	return nil
}

func (e *Engine) checkUnresolved(log logrus.FieldLogger, ds *domain.Dataset, report *Report) error {
	if report.UnresolvedManagers > 0 {
		log.WithFields(logrus.Fields{
			"count":     report.UnresolvedManagers,
			"employees": ds.UnresolvedManagers,
		}).Warn("employees reference a manager id that is not in the input; they were loaded without a manager")
	}
	if report.AssignmentsUnresolved > 0 {
		log.WithField("count", report.AssignmentsUnresolved).Warn("assignments skipped: employee or wbs did not resolve")
	}
	if report.FactsUnresolved > 0 {
		log.WithField("count", report.FactsUnresolved).Warn("actual hours skipped: employee or wbs did not resolve")
	}
	if e.opts.Strict && report.Unresolved() > 0 {
		return errors.Wrapf(domain.ErrUnresolvedReference,
			"strict mode: %d unresolved managers, %d assignments, %d facts",
			report.UnresolvedManagers, report.AssignmentsUnresolved, report.FactsUnresolved)
	}
	return nil
}

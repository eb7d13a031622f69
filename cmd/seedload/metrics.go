package main

import (
	"fmt"
	"time"

	"github.com/myscheduling/seedload/modules/staffing/reconcile"
	"github.com/myscheduling/seedload/pkg/metrics"
)

func recordRunMetrics(m *metrics.RunMetrics, r *reconcile.Report, runErr error, elapsed time.Duration) {
	if r != nil {
		m.SetEntities("employees", r.Built.Employees)
		m.SetEntities("projects", r.Built.Projects)
		m.SetEntities("wbs", r.Built.WBS)
		m.SetEntities("assignments", r.Built.Assignments)
		m.SetEntities("actual_hours", r.Built.Facts)

		m.SetOperation("users", "upserted", int64(r.UsersUpserted))
		m.SetOperation("managers", "linked", int64(r.ManagersLinked))
		m.SetOperation("managers", "root", int64(r.Roots))
		m.SetOperation("managers", "unresolved", int64(r.UnresolvedManagers))
		m.SetOperation("projects", "upserted", int64(r.ProjectsUpserted))
		m.SetOperation("wbs", "upserted", int64(r.WBSUpserted))
		m.SetOperation("assignments", "inserted", r.AssignmentsInserted)
		m.SetOperation("assignments", "existing", r.AssignmentsExisting)
		m.SetOperation("assignments", "unresolved", r.AssignmentsUnresolved)
		m.SetOperation("actual_hours", "inserted", r.FactsInserted)
		m.SetOperation("actual_hours", "duplicate", r.FactsDuplicate)
		m.SetOperation("actual_hours", "unresolved", r.FactsUnresolved)
	}
	m.Finish(elapsed, runErr, time.Now())
}

func writeRunMetrics(path string, r *reconcile.Report, runErr error, elapsed time.Duration) error {
	m := metrics.NewRunMetrics()
	recordRunMetrics(m, r, runErr, elapsed)
	if err := m.WriteTextfile(path); err != nil {
		return withCode(exitUsage, fmt.Errorf("write metrics %s: %w", path, err))
	}
	return nil
}

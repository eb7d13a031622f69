package reconcile

import (
	"time"

	"github.com/google/uuid"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

// Report summarizes one run. A rolled back run keeps Built and the
// unresolved counts; every write counter is reset to zero.
type Report struct {
	RunID     uuid.UUID     `json:"run_id"`
	TenantID  uuid.UUID     `json:"tenant_id"`
	AdminID   uuid.UUID     `json:"admin_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Committed bool          `json:"committed"`

	Built domain.Counts `json:"built"`

	UsersUpserted      int `json:"users_upserted"`
	ManagersLinked     int `json:"managers_linked"`
	Roots              int `json:"roots"`
	UnresolvedManagers int `json:"unresolved_managers"`

	ProjectsUpserted int `json:"projects_upserted"`
	WBSUpserted      int `json:"wbs_upserted"`

	AssignmentsInserted   int64 `json:"assignments_inserted"`
	AssignmentsExisting   int64 `json:"assignments_existing"`
	AssignmentsUnresolved int64 `json:"assignments_unresolved"`

	FactsAttempted  int64 `json:"facts_attempted"`
	FactsInserted   int64 `json:"facts_inserted"`
	FactsDuplicate  int64 `json:"facts_duplicate"`
	FactsUnresolved int64 `json:"facts_unresolved"`
}

func (r *Report) Unresolved() int64 {
	return int64(r.UnresolvedManagers) + r.AssignmentsUnresolved + r.FactsUnresolved
}

func (r *Report) discardWrites() {
	r.TenantID = uuid.Nil
	r.AdminID = uuid.Nil
	r.UsersUpserted = 0
	r.ManagersLinked = 0
	r.Roots = 0
	r.ProjectsUpserted = 0
	r.WBSUpserted = 0
	r.AssignmentsInserted = 0
	r.AssignmentsExisting = 0
	r.FactsAttempted = 0
	r.FactsInserted = 0
	r.FactsDuplicate = 0
}

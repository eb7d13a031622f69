package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is an inclusive span widened by every contributing row.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(d time.Time) DateRange {
	return DateRange{Start: d, End: d}
}

func (r *DateRange) Widen(d time.Time) {
	if d.Before(r.Start) {
		r.Start = d
	}
	if d.After(r.End) {
		r.End = d
	}
}

type Employee struct {
	SourceID        int64
	FirstLine       int
	FirstName       string
	LastName        string
	Active          bool
	Department      string
	HireDate        *time.Time
	TerminationDate *time.Time
	ManagerSourceID *int64

	// Filled in by identity resolution.
	Email      string
	ForcedRoot bool
}

func (e *Employee) DisplayName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

type Project struct {
	Code  string
	Name  string
	Dates DateRange
}

type WBSElement struct {
	Code        string
	ProjectCode string
	Description string
	Dates       DateRange
}

type AssignmentKey struct {
	EmployeeID int64
	WBSCode    string
}

type Assignment struct {
	Key        AssignmentKey
	Dates      DateRange
	TotalHours decimal.Decimal
}

// ActualHours is one fact per input row; aggregation never merges facts.
type ActualHours struct {
	Line         int
	EmployeeID   int64
	ProjectCode  string
	WBSCode      string
	ProjectName  string
	WorkDate     time.Time
	Hours        decimal.Decimal
	PayType      string
	PayTypeName  string
	BusinessUnit string
}

// ManagerLink is the resolved manager of one employee; a nil ManagerID makes
// the employee a root.
type ManagerLink struct {
	EmployeeID int64
	ManagerID  *int64
}

// Dataset holds the entity collections built from one input, in first-seen
// order.
type Dataset struct {
	Employees   []*Employee
	Projects    []*Project
	WBS         []*WBSElement
	Assignments []*Assignment
	Facts       []ActualHours

	ManagerLinks []ManagerLink
	// UnresolvedManagers lists employees whose source manager id is not an
	// employee of this input.
	UnresolvedManagers []int64

	employees   map[int64]*Employee
	projects    map[string]*Project
	wbs         map[string]*WBSElement
	assignments map[AssignmentKey]*Assignment
}

func NewDataset() *Dataset {
	return &Dataset{
		employees:   make(map[int64]*Employee),
		projects:    make(map[string]*Project),
		wbs:         make(map[string]*WBSElement),
		assignments: make(map[AssignmentKey]*Assignment),
	}
}

func (d *Dataset) Employee(id int64) (*Employee, bool) {
	e, ok := d.employees[id]
	return e, ok
}

func (d *Dataset) Project(code string) (*Project, bool) {
	p, ok := d.projects[code]
	return p, ok
}

func (d *Dataset) WBSElement(code string) (*WBSElement, bool) {
	w, ok := d.wbs[code]
	return w, ok
}

func (d *Dataset) Assignment(key AssignmentKey) (*Assignment, bool) {
	a, ok := d.assignments[key]
	return a, ok
}

func (d *Dataset) AddEmployee(e *Employee) {
	d.employees[e.SourceID] = e
	d.Employees = append(d.Employees, e)
}

func (d *Dataset) AddProject(p *Project) {
	d.projects[p.Code] = p
	d.Projects = append(d.Projects, p)
}

func (d *Dataset) AddWBSElement(w *WBSElement) {
	d.wbs[w.Code] = w
	d.WBS = append(d.WBS, w)
}

func (d *Dataset) AddAssignment(a *Assignment) {
	d.assignments[a.Key] = a
	d.Assignments = append(d.Assignments, a)
}

type Counts struct {
	Employees   int `json:"employees"`
	Projects    int `json:"projects"`
	WBS         int `json:"wbs"`
	Assignments int `json:"assignments"`
	Facts       int `json:"actual_rows"`
	// Hours is the sum of every assignment's total hours.
	Hours decimal.Decimal `json:"hours"`
}

func (d *Dataset) Counts() Counts {
	hours := decimal.Zero
	for _, a := range d.Assignments {
		hours = hours.Add(a.TotalHours)
	}
	return Counts{
		Employees:   len(d.Employees),
		Projects:    len(d.Projects),
		WBS:         len(d.WBS),
		Assignments: len(d.Assignments),
		Facts:       len(d.Facts),
		Hours:       hours,
	}
}

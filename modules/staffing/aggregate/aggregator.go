package aggregate

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

// ProjectCode is the segment of a source project id before the first dot.
// An id without a dot is its own project code.
func ProjectCode(projectID string) string {
	code, _, _ := strings.Cut(projectID, ".")
	return code
}

// Aggregate folds rows, in order, into deduplicated entities. Employee and
// project attributes come from the first row that mentions them; date ranges
// and hour totals take every row into account.
func Aggregate(rows []domain.Row) *domain.Dataset {
	ds := domain.NewDataset()
	ds.Facts = make([]domain.ActualHours, 0, len(rows))
	for i := range rows {
		add(ds, &rows[i])
	}
	return ds
}

func add(ds *domain.Dataset, r *domain.Row) {
	if _, ok := ds.Employee(r.EmployeeID); !ok {
		ds.AddEmployee(&domain.Employee{
			SourceID:        r.EmployeeID,
			FirstLine:       r.Line,
			FirstName:       r.FirstName,
			LastName:        r.LastName,
			Active:          r.Active,
			Department:      r.BusinessUnit,
			HireDate:        r.HireDate,
			TerminationDate: r.TerminationDate,
			ManagerSourceID: r.ManagerID,
		})
	}

	projectCode := ProjectCode(r.ProjectID)
	if p, ok := ds.Project(projectCode); ok {
		p.Dates.Widen(r.WorkDate)
	} else {
		ds.AddProject(&domain.Project{
			Code:  projectCode,
			Name:  r.ProjectName,
			Dates: domain.NewDateRange(r.WorkDate),
		})
	}

	if w, ok := ds.WBSElement(r.ProjectID); ok {
		w.Dates.Widen(r.WorkDate)
	} else {
		ds.AddWBSElement(&domain.WBSElement{
			Code:        r.ProjectID,
			ProjectCode: projectCode,
			Description: r.ProjectName,
			Dates:       domain.NewDateRange(r.WorkDate),
		})
	}

	key := domain.AssignmentKey{EmployeeID: r.EmployeeID, WBSCode: r.ProjectID}
	if a, ok := ds.Assignment(key); ok {
		a.Dates.Widen(r.WorkDate)
		a.TotalHours = a.TotalHours.Add(r.Hours)
	} else {
		ds.AddAssignment(&domain.Assignment{
			Key:        key,
			Dates:      domain.NewDateRange(r.WorkDate),
			TotalHours: decimal.Zero.Add(r.Hours),
		})
	}

	ds.Facts = append(ds.Facts, domain.ActualHours{
		Line:         r.Line,
		EmployeeID:   r.EmployeeID,
		ProjectCode:  projectCode,
		WBSCode:      r.ProjectID,
		ProjectName:  r.ProjectName,
		WorkDate:     r.WorkDate,
		Hours:        r.Hours,
		PayType:      r.PayType,
		PayTypeName:  r.PayTypeName,
		BusinessUnit: r.BusinessUnit,
	})
}

package ingest

import (
	"strings"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

const DefaultActiveToken = "Y"

// Normalizer turns raw records into typed rows for one fixed header.
type Normalizer struct {
	index       map[string]int
	activeToken string
}

func NewNormalizer(header []string, activeToken string) (*Normalizer, error) {
	idx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}
	token := strings.ToUpper(strings.TrimSpace(activeToken))
	if token == "" {
		token = DefaultActiveToken
	}
	return &Normalizer{index: idx, activeToken: token}, nil
}

func (n *Normalizer) value(record []string, col string) string {
	i := n.index[col]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Normalize parses one data record. line is the 1-based line in the source.
func (n *Normalizer) Normalize(line int, record []string) (domain.Row, error) {
	row := domain.Row{Line: line}
	fail := func(col string, err error) (domain.Row, error) {
		return domain.Row{}, &domain.RowError{Line: line, Column: col, Value: n.value(record, col), Err: err}
	}

	empID, err := parseSourceID(n.value(record, ColEmployeeID))
	if err != nil {
		return fail(ColEmployeeID, domain.ErrInvalidEmployeeID)
	}
	row.EmployeeID = empID

	row.EmployeeName = n.value(record, ColEmployeeName)
	row.FirstName, row.LastName = ParseName(row.EmployeeName)

	if raw := n.value(record, ColManagerID); !isBlank(raw) {
		mgr, err := parseSourceID(raw)
		if err != nil {
			return fail(ColManagerID, domain.ErrInvalidManagerID)
		}
		row.ManagerID = &mgr
	}

	row.Active = strings.ToUpper(n.value(record, ColActiveFlag)) == n.activeToken
	row.BusinessUnit = n.value(record, ColBusinessUnit)
	row.HireDate = optionalDate(n.value(record, ColHireDate))
	row.TerminationDate = optionalDate(n.value(record, ColTerminationDate))

	row.ProjectID = n.value(record, ColProjectID)
	row.ProjectName = n.value(record, ColProjectName)

	workDate, ok := parseDate(n.value(record, ColHoursDate))
	if !ok {
		return fail(ColHoursDate, domain.ErrInvalidWorkDate)
	}
	row.WorkDate = workDate

	hours, err := parseHours(n.value(record, ColEnteredHours))
	if err != nil {
		return fail(ColEnteredHours, domain.ErrInvalidHours)
	}
	row.Hours = hours

	row.PayType = n.value(record, ColPayType)
	row.PayTypeName = n.value(record, ColPayTypeName)
	return row, nil
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeAll parses every non-empty record; the first bad record aborts.
func normalizeAll(header []string, records [][]string, firstLine int, activeToken string) ([]domain.Row, error) {
	n, err := NewNormalizer(header, activeToken)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.Row, 0, len(records))
	for i, rec := range records {
		if isEmptyRecord(rec) {
			continue
		}
		row, err := n.Normalize(firstLine+i, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, domain.ErrEmptyInput
	}
	return rows, nil
}

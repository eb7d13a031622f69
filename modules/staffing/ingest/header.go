package ingest

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

const (
	ColEmployeeID      = "Employee_Id"
	ColEmployeeName    = "Employee_Name"
	ColManagerID       = "Manager_ID"
	ColActiveFlag      = "Active_Flag"
	ColBusinessUnit    = "Business_Unit"
	ColHireDate        = "Hire_date"
	ColTerminationDate = "Termination_date"
	ColProjectID       = "Project_ID"
	ColProjectName     = "Project_Name"
	ColHoursDate       = "Hours_Date"
	ColEnteredHours    = "Entered_Hours"
	ColPayType         = "Pay_Type"
	ColPayTypeName     = "Pay_Type_Name"
)

var RequiredColumns = []string{
	ColEmployeeID,
	ColEmployeeName,
	ColManagerID,
	ColActiveFlag,
	ColBusinessUnit,
	ColHireDate,
	ColTerminationDate,
	ColProjectID,
	ColProjectName,
	ColHoursDate,
	ColEnteredHours,
	ColPayType,
	ColPayTypeName,
}

// maxSuggestDistance bounds how far a header may be from a required column
// to be offered as a suggestion.
const maxSuggestDistance = 3

func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.TrimSpace(h), " ", "_")
}

// indexColumns maps each required column to its position in header. Header
// cells are normalized and compared case-insensitively; extra columns are
// ignored.
func indexColumns(header []string) (map[string]int, error) {
	byKey := make(map[string]int, len(header))
	normalized := make([]string, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		normalized[i] = n
		key := strings.ToLower(n)
		if _, dup := byKey[key]; !dup {
			byKey[key] = i
		}
	}

	idx := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		i, ok := byKey[strings.ToLower(col)]
		if !ok {
			if s := closestHeader(col, normalized); s != "" {
				return nil, errors.Wrapf(domain.ErrMissingColumn, "%s (closest header: %q)", col, s)
			}
			return nil, errors.Wrap(domain.ErrMissingColumn, col)
		}
		idx[col] = i
	}
	return idx, nil
}

func closestHeader(col string, header []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, h := range header {
		if h == "" {
			continue
		}
		d := fuzzy.LevenshteinDistance(strings.ToLower(col), strings.ToLower(h))
		if d < bestDist {
			best, bestDist = h, d
		}
	}
	return best
}

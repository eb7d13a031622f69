package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one normalized line of the "Data" sheet.
type Row struct {
	Line int

	EmployeeID      int64
	EmployeeName    string
	FirstName       string
	LastName        string
	ManagerID       *int64
	Active          bool
	BusinessUnit    string
	HireDate        *time.Time
	TerminationDate *time.Time

	ProjectID   string
	ProjectName string

	WorkDate    time.Time
	Hours       decimal.Decimal
	PayType     string
	PayTypeName string
}

package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	ErrMissingColumn       = errors.New("missing required column")
	ErrSheetNotFound       = errors.New("sheet not found")
	ErrEmptyInput          = errors.New("input has no data rows")
	ErrUnsupportedFormat   = errors.New("unsupported input format")
	ErrInvalidEmployeeID   = errors.New("invalid employee id")
	ErrInvalidManagerID    = errors.New("invalid manager id")
	ErrInvalidWorkDate     = errors.New("invalid work date")
	ErrInvalidHours        = errors.New("invalid hours")
	ErrUnresolvedReference = errors.New("unresolved reference")
)

// RowError ties a parse failure to the 1-based input line it came from.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s=%q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

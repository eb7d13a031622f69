package ingest

import (
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

type Options struct {
	Sheet       string
	ActiveToken string
}

func (o Options) sheet() string {
	if strings.TrimSpace(o.Sheet) == "" {
		return DefaultSheet
	}
	return o.Sheet
}

// ReadFile picks the reader from the file extension.
func ReadFile(path string, opts Options) ([]domain.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path, opts)
	case ".csv":
		return ReadCSV(path, opts)
	default:
		return nil, errors.Wrapf(domain.ErrUnsupportedFormat, "%s", path)
	}
}

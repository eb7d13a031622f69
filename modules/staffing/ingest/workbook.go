package ingest

import (
	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

const DefaultSheet = "Data"

// ReadWorkbook reads sheet of the xlsx file at path. Cells are read raw so
// date cells arrive as Excel serial numbers regardless of display format.
func ReadWorkbook(path string, opts Options) ([]domain.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer func() { _ = f.Close() }()

	sheet := opts.sheet()
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, errors.Wrapf(domain.ErrSheetNotFound, "%s in %s", sheet, path)
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(domain.ErrMissingColumn, "sheet %s has no header row", sheet)
	}
	return normalizeAll(records[0], records[1:], 2, opts.ActiveToken)
}

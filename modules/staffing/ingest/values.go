package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/06",
	"2-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
}

// Excel serials beyond 9999-12-31 are not dates.
const maxExcelSerial = 2958465

func isBlank(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "nat", "none", "null":
		return true
	}
	return false
}

// parseDate accepts ISO and US layouts and Excel serial day numbers. The
// result is a UTC calendar date.
func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if isBlank(v) {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if f <= 0 || f > maxExcelSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, false
		}
		return dateOnlyUTC(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return dateOnlyUTC(t), true
		}
	}
	return time.Time{}, false
}

func dateOnlyUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func optionalDate(v string) *time.Time {
	t, ok := parseDate(v)
	if !ok {
		return nil
	}
	return &t
}

// parseSourceID reads an integer id, tolerating the "7.0" spelling that
// spreadsheets produce for numeric cells.
func parseSourceID(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("empty")
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errors.Errorf("not an integer: %s", v)
	}
	if !d.BigInt().IsInt64() {
		return 0, errors.Errorf("out of range: %s", v)
	}
	return d.IntPart(), nil
}

func parseHours(v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero, errors.New("empty")
	}
	return decimal.NewFromString(v)
}

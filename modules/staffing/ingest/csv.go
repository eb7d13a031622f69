package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"

	"github.com/myscheduling/seedload/modules/staffing/domain"
)

func openCSV(path string) (*csv.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	br := bufio.NewReader(f)
	br = stripUTF8BOM(br)

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false
	return r, f.Close, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func readHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(domain.ErrMissingColumn, "missing header")
		}
		return nil, err
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
		if !utf8.ValidString(h[i]) {
			return nil, errors.New("invalid header encoding")
		}
	}
	return h, nil
}

// ReadCSV reads the same layout as the Data sheet from a CSV export.
func ReadCSV(path string, opts Options) ([]domain.Row, error) {
	r, closeFn, err := openCSV(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = closeFn() }()

	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return normalizeAll(header, records, 2, opts.ActiveToken)
}

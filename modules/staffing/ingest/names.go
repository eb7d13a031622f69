package ingest

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ParseName splits an employee name into first and last name. "Last, First
// (extra)" splits on the first comma after dropping the parenthesized tail;
// otherwise the first word is the first name and the rest is the last name.
func ParseName(raw string) (first, last string) {
	raw = norm.NFC.String(strings.TrimSpace(raw))
	if i := strings.Index(raw, "("); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSpace(raw)

	if l, f, ok := strings.Cut(raw, ","); ok {
		return strings.TrimSpace(f), strings.TrimSpace(l)
	}

	parts := strings.Fields(raw)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

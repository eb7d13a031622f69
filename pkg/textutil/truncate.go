package textutil

import (
	"unicode/utf8"
)

// Truncate cuts s to at most maxBytes bytes without splitting a UTF-8 sequence.
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	b := []byte(s[:maxBytes])
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return ""
	}
	return string(b)
}

func TruncateError(err error, maxBytes int) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error(), maxBytes)
}

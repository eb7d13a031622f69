package ingest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, v := range []string{"2024-01-02", "2024-01-02T10:30:00Z", "2024-01-02 10:30:00", "1/2/2024", "01/02/2024", "1/2/24", "45293", "45293.75"} {
		got, ok := parseDate(v)
		require.True(t, ok, v)
		assert.Equal(t, want, got, v)
	}

	for _, v := range []string{"", " ", "NaT", "nan", "not a date", "-3", "99999999"} {
		_, ok := parseDate(v)
		assert.False(t, ok, v)
	}
}

func TestParseSourceID(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]int64{"7": 7, " 1042 ": 1042, "7.0": 7, "12.00": 12, "9223372036854775807": math.MaxInt64} {
		got, err := parseSourceID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "abc", "7.5", "1e30", "9223372036854775808", "-9223372036854775809"} {
		_, err := parseSourceID(in)
		assert.Error(t, err, in)
	}
}

func TestParseHours(t *testing.T) {
	t.Parallel()

	h, err := parseHours(" 4.25 ")
	require.NoError(t, err)
	assert.Equal(t, "4.25", h.String())

	for _, in := range []string{"", "four", "1,5"} {
		_, err := parseHours(in)
		assert.Error(t, err, in)
	}
}

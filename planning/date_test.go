package planning_test

import (
	"testing"
	"time"

	"github.com/josoavj/Planificator/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_AcceptsBothLayouts(t *testing.T) {
	iso, err := planning.ParseDate("2025-03-06")
	require.NoError(t, err)
	dayFirst, err := planning.ParseDate("06-03-2025")
	require.NoError(t, err)

	assert.Equal(t, iso, dayFirst)
	assert.Equal(t, "2025-03-06", iso.String())
	assert.Equal(t, "06-03-2025", iso.Display())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2025-02-30", "yesterday", "2025/03/06"} {
		_, err := planning.ParseDate(in)
		assert.ErrorIs(t, err, planning.ErrInvalidDate, in)
	}
}

func TestAddMonths_ClampsDay(t *testing.T) {
	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-01-31", 3, "2025-04-30"},
		{"2025-03-31", -1, "2025-02-28"},
		{"2025-11-15", 3, "2026-02-15"},
		{"2025-02-15", -3, "2024-11-15"},
		{"2025-05-10", 0, "2025-05-10"},
	}
	for _, tt := range tests {
		got := planning.MustDate(tt.from).AddMonths(tt.months)
		assert.Equal(t, tt.want, got.String(), "%s %+d", tt.from, tt.months)
	}
}

func TestMonthsBetween(t *testing.T) {
	d := planning.MustDate

	assert.Equal(t, 2, planning.MonthsBetween(d("2025-03-06"), d("2025-05-06")))
	assert.Equal(t, 1, planning.MonthsBetween(d("2025-03-06"), d("2025-05-05")))
	assert.Equal(t, -2, planning.MonthsBetween(d("2025-05-06"), d("2025-03-06")))
	assert.Equal(t, 0, planning.MonthsBetween(d("2025-03-06"), d("2025-03-20")))
	// Month-end to month-end counts as a whole month.
	assert.Equal(t, 1, planning.MonthsBetween(d("2025-01-31"), d("2025-02-28")))
}

func TestDate_Weekend(t *testing.T) {
	assert.True(t, planning.MustDate("2025-03-08").IsWeekend())
	assert.True(t, planning.MustDate("2025-03-09").IsWeekend())
	assert.False(t, planning.MustDate("2025-03-10").IsWeekend())
}

func TestDate_Scan(t *testing.T) {
	var d planning.Date

	require.NoError(t, d.Scan("2025-03-06"))
	assert.Equal(t, planning.MustDate("2025-03-06"), d)

	require.NoError(t, d.Scan(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, planning.MustDate("2025-07-01"), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d planning.Date
	require.NoError(t, d.UnmarshalText([]byte("2025-12-08")))

	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-12-08", string(b))
}

package planning_test

import (
	"testing"

	"github.com/josoavj/Planificator/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator() *planning.Generator {
	return planning.NewGenerator(planning.NewCalendar(planning.Madagascar, nil))
}

func dateStrings(ds []planning.Date) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func TestGenerate_Monthly(t *testing.T) {
	// GIVEN: A monthly recurrence starting Monday 2025-01-06
	// WHEN: Generating its dates
	// THEN: 12 dates, weekend and holiday days rolled to the next workday

	dates, err := newGenerator().Generate(planning.MustDate("2025-01-06"), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2025-01-06", "2025-02-06", "2025-03-06", "2025-04-07",
		"2025-05-06", "2025-06-06", "2025-07-07", "2025-08-06",
		"2025-09-08", "2025-10-06", "2025-11-06", "2025-12-08",
	}, dateStrings(dates))
}

func TestGenerate_Counts(t *testing.T) {
	gen := newGenerator()
	start := planning.MustDate("2025-03-03")

	for interval, want := range map[int]int{0: 1, 1: 12, 2: 6, 3: 4, 4: 3, 6: 2, 12: 1} {
		dates, err := gen.Generate(start, interval)
		require.NoError(t, err)
		assert.Len(t, dates, want, "interval %d", interval)
	}
}

func TestGenerate_Quarterly(t *testing.T) {
	dates, err := newGenerator().Generate(planning.MustDate("2025-03-03"), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-03-03", "2025-06-03", "2025-09-03", "2025-12-03"}, dateStrings(dates))
}

func TestGenerate_EndOfMonthClamp(t *testing.T) {
	dates, err := newGenerator().Generate(planning.MustDate("2025-01-31"), 1)
	require.NoError(t, err)

	// Feb 28, then Mar 31: the clamp does not drift the day.
	assert.Equal(t, "2025-02-28", dates[1].String())
	assert.Equal(t, "2025-03-31", dates[2].String())
	// May 31 is a Saturday, Jun 1 a Sunday.
	assert.Equal(t, "2025-06-02", dates[4].String())
}

func TestGenerate_SingleShotIsAdjusted(t *testing.T) {
	dates, err := newGenerator().Generate(planning.MustDate("2025-06-26"), 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-06-27"}, dateStrings(dates))
}

func TestGenerate_EveryDateIsAWorkday(t *testing.T) {
	cal := planning.NewCalendar(planning.Madagascar, nil)
	gen := planning.NewGenerator(cal)

	for _, start := range []string{"2025-01-01", "2025-03-29", "2025-12-25", "2026-02-28"} {
		for _, k := range []int{0, 1, 2, 3, 4, 6, 12} {
			dates, err := gen.Generate(planning.MustDate(start), k)
			require.NoError(t, err)
			for i, d := range dates {
				assert.True(t, cal.IsWorkday(d), "%s k=%d: %s", start, k, d)
				if i > 0 {
					assert.True(t, dates[i-1].Before(d), "ascending")
				}
			}
		}
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	gen := newGenerator()

	_, err := gen.Generate(planning.MustDate("2025-01-06"), -1)
	assert.ErrorIs(t, err, planning.ErrValidation)

	_, err = gen.Generate(planning.MustDate("2025-01-06"), 13)
	assert.ErrorIs(t, err, planning.ErrValidation)

	_, err = gen.Generate(planning.Date{}, 1)
	assert.ErrorIs(t, err, planning.ErrInvalidDate)
}

func TestOccurrenceCount(t *testing.T) {
	assert.Equal(t, 1, planning.OccurrenceCount(0))
	assert.Equal(t, 12, planning.OccurrenceCount(1))
	assert.Equal(t, 4, planning.OccurrenceCount(3))
	assert.Equal(t, 2, planning.OccurrenceCount(5))
}

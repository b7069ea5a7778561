package planning_test

import (
	"errors"
	"testing"

	"github.com/josoavj/Planificator/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHolidays struct {
	holidays []planning.Holiday
	err      error
	calls    int
	onLoad   func() // runs after the holidays were read
}

func (f *fakeHolidays) CustomHolidays(jurisdiction string, year int) ([]planning.Holiday, error) {
	f.calls++
	out := f.holidays
	if f.onLoad != nil {
		f.onLoad()
	}
	return out, f.err
}

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, "2024-03-31", planning.EasterSunday(2024).String())
	assert.Equal(t, "2025-04-20", planning.EasterSunday(2025).String())
	assert.Equal(t, "2026-04-05", planning.EasterSunday(2026).String())
}

func TestCalendar_Adjust(t *testing.T) {
	cal := planning.NewCalendar(planning.Madagascar, nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"workday unchanged", "2025-03-06", "2025-03-06"},
		{"saturday to monday", "2025-03-01", "2025-03-03"},
		{"independence day", "2025-06-26", "2025-06-27"},
		{"friday holiday rolls over the weekend", "2026-05-01", "2026-05-04"},
		{"weekend then easter monday", "2025-04-19", "2025-04-22"},
		{"weekend ending on a sunday holiday", "2026-03-28", "2026-03-30"},
		{"christmas", "2025-12-25", "2025-12-26"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.Adjust(planning.MustDate(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCalendar_Adjust_ZeroDate(t *testing.T) {
	cal := planning.NewCalendar(nil, nil)

	_, err := cal.Adjust(planning.Date{})

	assert.ErrorIs(t, err, planning.ErrInvalidDate)
}

func TestCalendar_CustomHolidays(t *testing.T) {
	// GIVEN: A recurring custom holiday stored on 2019-03-10
	// WHEN: Adjusting 2025-03-10 (a Monday)
	// THEN: The holiday applies in 2025 and the date moves to Tuesday

	source := &fakeHolidays{holidays: []planning.Holiday{
		{Jurisdiction: "MG", Date: planning.MustDate("2019-03-10"), Name: "Fête locale", Recurring: true},
	}}
	cal := planning.NewCalendar(planning.Madagascar, source)

	got, err := cal.Adjust(planning.MustDate("2025-03-10"))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", got.String())

	// The year is cached.
	cal.IsHoliday(planning.MustDate("2025-07-01"))
	assert.Equal(t, 1, source.calls)

	cal.Invalidate(2025)
	cal.IsHoliday(planning.MustDate("2025-07-01"))
	assert.Equal(t, 2, source.calls)
}

func TestCalendar_SourceFailure_KeepsStatutoryHolidays(t *testing.T) {
	source := &fakeHolidays{err: errors.New("database down")}
	cal := planning.NewCalendar(planning.Madagascar, source)

	assert.True(t, cal.IsHoliday(planning.MustDate("2025-06-26")))
	// Failed loads are not cached.
	cal.IsHoliday(planning.MustDate("2025-06-27"))
	assert.Equal(t, 2, source.calls)
}

func TestCalendar_InvalidatedDuringLoad_IsNotCached(t *testing.T) {
	// GIVEN: A custom holiday saved while the year was being loaded
	// WHEN: Asking about that day before and after the save settles
	// THEN: The stale load is not cached; the next lookup sees the holiday

	source := &fakeHolidays{}
	cal := planning.NewCalendar(planning.Madagascar, source)
	day := planning.MustDate("2025-08-14")
	source.onLoad = func() {
		source.onLoad = nil
		source.holidays = []planning.Holiday{{Date: day, Name: "Fermeture annuelle"}}
		cal.Invalidate(2025)
	}

	assert.False(t, cal.IsHoliday(day))
	assert.True(t, cal.IsHoliday(day))
	assert.Equal(t, 2, source.calls)

	// Loaded without interference, the year is now cached.
	assert.True(t, cal.IsHoliday(day))
	assert.Equal(t, 2, source.calls)
}

func TestCalendar_Holidays_Sorted(t *testing.T) {
	cal := planning.NewCalendar(planning.France, nil)

	hs := cal.Holidays(2025)

	require.Len(t, hs, 11)
	assert.Equal(t, "2025-01-01", hs[0].Date.String())
	assert.Equal(t, "2025-12-25", hs[len(hs)-1].Date.String())
	for i := 1; i < len(hs); i++ {
		assert.True(t, hs[i-1].Date.Before(hs[i].Date))
	}
}

func TestJurisdictionByCode(t *testing.T) {
	j, ok := planning.JurisdictionByCode("")
	require.True(t, ok)
	assert.Equal(t, "MG", j.Code())

	j, ok = planning.JurisdictionByCode("fr")
	require.True(t, ok)
	assert.Equal(t, "FR", j.Code())

	_, ok = planning.JurisdictionByCode("XX")
	assert.False(t, ok)
}

package planning

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// HOLIDAYS - Public-holiday calendars per jurisdiction
// =============================================================================

// Holiday is a non-working day. Custom holidays are stored in the ledger;
// jurisdiction holidays are computed.
type Holiday struct {
	ID           int64
	Jurisdiction string
	Date         Date
	Name         string
	Recurring    bool // same month/day every year
}

// Jurisdiction computes the statutory holidays of one country for a year.
type Jurisdiction interface {
	Code() string
	Holidays(year int) []Holiday
}

// HolidaySource supplies extra, user-maintained holidays for a year.
// The ledger store implements it.
type HolidaySource interface {
	CustomHolidays(jurisdiction string, year int) ([]Holiday, error)
}

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

// easterHoliday is an offset in days from Easter Sunday.
type easterHoliday struct {
	offset int
	name   string
}

type calendarRules struct {
	code   string
	fixed  []fixedHoliday
	easter []easterHoliday
}

func (c calendarRules) Code() string { return c.code }

func (c calendarRules) Holidays(year int) []Holiday {
	out := make([]Holiday, 0, len(c.fixed)+len(c.easter))
	for _, f := range c.fixed {
		out = append(out, Holiday{Jurisdiction: c.code, Date: NewDate(year, f.month, f.day), Name: f.name, Recurring: true})
	}
	easter := EasterSunday(year)
	for _, e := range c.easter {
		out = append(out, Holiday{Jurisdiction: c.code, Date: easter.AddDays(e.offset), Name: e.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Madagascar is the default jurisdiction.
var Madagascar Jurisdiction = calendarRules{
	code: "MG",
	fixed: []fixedHoliday{
		{time.January, 1, "Jour de l'An"},
		{time.March, 8, "Journée internationale de la femme"},
		{time.March, 29, "Commémoration des martyrs de 1947"},
		{time.May, 1, "Fête du Travail"},
		{time.June, 26, "Fête de l'Indépendance"},
		{time.August, 15, "Assomption"},
		{time.November, 1, "Toussaint"},
		{time.December, 25, "Noël"},
	},
	easter: []easterHoliday{
		{1, "Lundi de Pâques"},
		{39, "Ascension"},
		{50, "Lundi de Pentecôte"},
	},
}

var France Jurisdiction = calendarRules{
	code: "FR",
	fixed: []fixedHoliday{
		{time.January, 1, "Jour de l'An"},
		{time.May, 1, "Fête du Travail"},
		{time.May, 8, "Victoire 1945"},
		{time.July, 14, "Fête nationale"},
		{time.August, 15, "Assomption"},
		{time.November, 1, "Toussaint"},
		{time.November, 11, "Armistice 1918"},
		{time.December, 25, "Noël"},
	},
	easter: []easterHoliday{
		{1, "Lundi de Pâques"},
		{39, "Ascension"},
		{50, "Lundi de Pentecôte"},
	},
}

// JurisdictionByCode resolves a configured code, case-insensitive.
func JurisdictionByCode(code string) (Jurisdiction, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "", "MG":
		return Madagascar, true
	case "FR":
		return France, true
	}
	return nil, false
}

// EasterSunday uses the anonymous Gregorian algorithm.
func EasterSunday(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return NewDate(year, time.Month(month), day)
}

package planning

import (
	"log"
	"sort"
	"sync"
)

// =============================================================================
// CALENDAR ADJUSTER - Roll a date onto the next working day
// =============================================================================

// Calendar resolves dates against weekends and a jurisdiction's holidays.
//
// Holiday sets are built once per year and cached. Each year's set is
// independent; nothing is carried between years.
type Calendar struct {
	jurisdiction Jurisdiction
	source       HolidaySource // optional

	mu    sync.RWMutex
	years map[int]map[Date]string
	gen   uint64 // bumped by every invalidation
}

func NewCalendar(j Jurisdiction, source HolidaySource) *Calendar {
	if j == nil {
		j = Madagascar
	}
	return &Calendar{
		jurisdiction: j,
		source:       source,
		years:        make(map[int]map[Date]string),
	}
}

func (c *Calendar) Jurisdiction() Jurisdiction { return c.jurisdiction }

// Adjust returns the earliest date on or after raw that is neither a
// Saturday, a Sunday nor a holiday. A holiday that ends on a Friday rolls
// over the weekend to Monday (and further if Monday is a holiday too).
func (c *Calendar) Adjust(raw Date) (Date, error) {
	if raw.IsZero() {
		return Date{}, &DateError{}
	}
	d := raw
	for {
		switch {
		case d.IsWeekend():
			d = d.AddDays(1)
		case c.IsHoliday(d):
			d = d.AddDays(1)
		default:
			return d, nil
		}
	}
}

// IsHoliday reports whether d is in its year's holiday set.
func (c *Calendar) IsHoliday(d Date) bool {
	_, ok := c.yearSet(d.Year())[d]
	return ok
}

// IsWorkday is the complement of Adjust's skip rule.
func (c *Calendar) IsWorkday(d Date) bool {
	return !d.IsWeekend() && !c.IsHoliday(d)
}

// Holidays returns the year's holidays, computed and custom, by date.
func (c *Calendar) Holidays(year int) []Holiday {
	set := c.yearSet(year)
	out := make([]Holiday, 0, len(set))
	for d, name := range set {
		out = append(out, Holiday{Jurisdiction: c.jurisdiction.Code(), Date: d, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Invalidate drops a cached year, e.g. after a custom holiday was saved.
func (c *Calendar) Invalidate(year int) {
	c.mu.Lock()
	delete(c.years, year)
	c.gen++
	c.mu.Unlock()
}

func (c *Calendar) InvalidateAll() {
	c.mu.Lock()
	c.years = make(map[int]map[Date]string)
	c.gen++
	c.mu.Unlock()
}

func (c *Calendar) yearSet(year int) map[Date]string {
	c.mu.RLock()
	set, ok := c.years[year]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return set
	}

	set = make(map[Date]string)
	for _, h := range c.jurisdiction.Holidays(year) {
		set[h.Date] = h.Name
	}
	cacheable := true
	if c.source != nil {
		custom, err := c.source.CustomHolidays(c.jurisdiction.Code(), year)
		if err != nil {
			// Statutory holidays are always computable; custom ones are best effort.
			log.Printf("[Calendar] custom holidays for %d unavailable: %v", year, err)
			cacheable = false
		}
		for _, h := range custom {
			d := h.Date
			if h.Recurring {
				d = NewDate(year, d.Month(), min(d.Day(), DaysIn(year, d.Month())))
			}
			if d.Year() == year {
				set[d] = h.Name
			}
		}
	}
	if !cacheable {
		return set
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Invalidated while loading: the load may predate the change.
		return set
	}
	if existing, ok := c.years[year]; ok {
		return existing
	}
	c.years[year] = set
	return set
}

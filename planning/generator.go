package planning

// HorizonMonths bounds every recurrence to one year of occurrences.
const HorizonMonths = 12

// Generator expands a recurrence into its occurrence dates.
type Generator struct {
	Calendar *Calendar
}

func NewGenerator(cal *Calendar) *Generator {
	return &Generator{Calendar: cal}
}

// Generate returns the adjusted occurrence dates for a recurrence starting
// on start and repeating every interval months, in ascending order.
//
//	interval 0  -> 1 date (single shot)
//	interval k  -> floor(12/k) dates at start + 0, k, 2k... months
//
// Each raw date is clamped to the target month's last day before it is
// adjusted, so Jan 31 every month yields Feb 28/29, Mar 31, Apr 30...
func (g *Generator) Generate(start Date, interval int) ([]Date, error) {
	if start.IsZero() {
		return nil, &DateError{}
	}
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}

	n := OccurrenceCount(interval)
	dates := make([]Date, 0, n)
	for i := 0; i < n; i++ {
		d, err := g.Calendar.Adjust(start.AddMonths(i * interval))
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// OccurrenceCount is the number of occurrences a recurrence holds.
func OccurrenceCount(interval int) int {
	if interval == 0 {
		return 1
	}
	return HorizonMonths / interval
}

func ValidateInterval(interval int) error {
	if interval < 0 || interval > HorizonMonths {
		return invalid("interval_months", "must be between 0 and %d, got %d", HorizonMonths, interval)
	}
	return nil
}

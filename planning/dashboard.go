package planning

import (
	"context"
	"sync"
	"time"
)

// ListInProgress returns the month's occurrences that are not cancelled,
// ordered by date. On failure it returns an empty slice and the error.
func (s *Service) ListInProgress(ctx context.Context, year int, month time.Month) ([]OccurrenceView, error) {
	if err := validateMonth(year, month); err != nil {
		return []OccurrenceView{}, err
	}
	views, err := s.Store.ListOccurrenceViews(ctx, StartOfMonth(year, month), EndOfMonth(year, month))
	if err != nil {
		logRead("list in progress", err)
		return []OccurrenceView{}, err
	}
	out := make([]OccurrenceView, 0, len(views))
	for _, v := range views {
		if v.State != StateCancelled {
			out = append(out, v)
		}
	}
	return out, nil
}

// ListUpcoming returns the upcoming occurrences of the month after the given
// one, leaving out treatments already in progress this month.
func (s *Service) ListUpcoming(ctx context.Context, year int, month time.Month) ([]OccurrenceView, error) {
	current, err := s.ListInProgress(ctx, year, month)
	if err != nil {
		return []OccurrenceView{}, err
	}
	next, err := s.nextMonthUpcoming(ctx, year, month)
	if err != nil {
		return []OccurrenceView{}, err
	}
	return withoutBusy(next, current), nil
}

// nextMonthUpcoming loads the upcoming occurrences of the month after the
// given one.
func (s *Service) nextMonthUpcoming(ctx context.Context, year int, month time.Month) ([]OccurrenceView, error) {
	next := StartOfMonth(year, month).AddMonths(1)
	views, err := s.Store.ListOccurrenceViews(ctx, next, EndOfMonth(next.Year(), next.Month()))
	if err != nil {
		logRead("list upcoming", err)
		return []OccurrenceView{}, err
	}
	out := make([]OccurrenceView, 0, len(views))
	for _, v := range views {
		if v.State == StateUpcoming {
			out = append(out, v)
		}
	}
	return out, nil
}

// withoutBusy drops from next the treatments that appear in current.
func withoutBusy(next, current []OccurrenceView) []OccurrenceView {
	busy := make(map[int64]bool, len(current))
	for _, v := range current {
		busy[v.TreatmentID] = true
	}
	out := make([]OccurrenceView, 0, len(next))
	for _, v := range next {
		if !busy[v.TreatmentID] {
			out = append(out, v)
		}
	}
	return out
}

// Dashboard is both projections for one month.
type Dashboard struct {
	Year       int
	Month      time.Month
	InProgress []OccurrenceView
	Upcoming   []OccurrenceView
}

// Dashboard loads the month and the following one concurrently, then
// removes from Upcoming the treatments already in progress.
func (s *Service) Dashboard(ctx context.Context, year int, month time.Month) (Dashboard, error) {
	d := Dashboard{Year: year, Month: month, InProgress: []OccurrenceView{}, Upcoming: []OccurrenceView{}}
	if err := validateMonth(year, month); err != nil {
		return d, err
	}

	var (
		wg                      sync.WaitGroup
		current, next           []OccurrenceView
		currentErr, upcomingErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = s.ListInProgress(ctx, year, month)
	}()
	go func() {
		defer wg.Done()
		next, upcomingErr = s.nextMonthUpcoming(ctx, year, month)
	}()
	wg.Wait()

	if currentErr != nil {
		return d, currentErr
	}
	if upcomingErr != nil {
		return d, upcomingErr
	}

	d.InProgress = current
	d.Upcoming = withoutBusy(next, current)
	return d, nil
}

func validateMonth(year int, month time.Month) error {
	if year < 1 || year > 9999 {
		return invalid("year", "out of range: %d", year)
	}
	if month < time.January || month > time.December {
		return invalid("month", "must be 1..12, got %d", int(month))
	}
	return nil
}

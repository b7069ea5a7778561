package planning

import (
	"context"
	"strings"
)

// =============================================================================
// RESCHEDULE ENGINE - Move occurrences, keep an audit trail
// =============================================================================

// Direction of a shift-all. Delay adds the offset, Advance subtracts it.
type Direction = RescheduleKind

// ShiftAllRequest moves the reference occurrence and every later occurrence
// of the same recurrence (by id) by a whole number of months.
type ShiftAllRequest struct {
	RecurrenceID          int64
	ReferenceOccurrenceID int64
	Months                int
	Direction             Direction
	Reason                string
}

// RescheduleShiftAll applies a uniform month offset to the occurrences of a
// recurrence whose id is >= the reference id. Days are clamped to the
// target month. Shifted dates are not re-adjusted against the calendar.
//
// Runs once, without retry. Returns the re-read reference occurrence.
func (s *Service) RescheduleShiftAll(ctx context.Context, req ShiftAllRequest) (Occurrence, error) {
	if req.Months < 0 {
		return Occurrence{}, invalid("months", "must not be negative, got %d", req.Months)
	}
	if req.Months > HorizonMonths {
		return Occurrence{}, invalid("months", "must not exceed %d, got %d", HorizonMonths, req.Months)
	}
	if !req.Direction.Valid() {
		return Occurrence{}, invalid("direction", "unknown direction %q", req.Direction)
	}
	offset := req.Months
	if req.Direction == Advance {
		offset = -offset
	}

	var out Occurrence
	err := s.Exec.Once(ctx, "reschedule shift-all", func(tx Tx) error {
		ref, err := tx.GetOccurrence(ctx, req.ReferenceOccurrenceID)
		if err != nil {
			return err
		}
		if ref.RecurrenceID != req.RecurrenceID {
			return invalid("reference_occurrence_id", "occurrence %d does not belong to recurrence %d", ref.ID, req.RecurrenceID)
		}
		all, err := tx.ListOccurrences(ctx, req.RecurrenceID)
		if err != nil {
			return err
		}
		for _, o := range all {
			if o.ID < ref.ID {
				continue
			}
			if err := tx.SetOccurrenceDate(ctx, o.ID, o.Date.AddMonths(offset)); err != nil {
				return err
			}
		}
		if _, err := tx.AppendRescheduleEvent(ctx, RescheduleEvent{
			OccurrenceID: ref.ID,
			Reason:       strings.TrimSpace(req.Reason),
			Kind:         req.Direction,
			CreatedAt:    s.Now(),
		}); err != nil {
			return err
		}
		out, err = tx.GetOccurrence(ctx, ref.ID)
		return err
	})
	if err != nil {
		return Occurrence{}, err
	}
	return out, nil
}

// ShiftOneRequest moves a single occurrence to a new date.
type ShiftOneRequest struct {
	OccurrenceID int64
	NewDate      Date
	Kind         RescheduleKind
	Reason       string
}

// RescheduleShiftOne changes only the given occurrence. The new date is
// taken as entered.
func (s *Service) RescheduleShiftOne(ctx context.Context, req ShiftOneRequest) (Occurrence, error) {
	if req.NewDate.IsZero() {
		return Occurrence{}, &DateError{}
	}
	if !req.Kind.Valid() {
		return Occurrence{}, invalid("kind", "unknown kind %q", req.Kind)
	}

	var out Occurrence
	err := s.Exec.Once(ctx, "reschedule shift-one", func(tx Tx) error {
		if _, err := tx.GetOccurrence(ctx, req.OccurrenceID); err != nil {
			return err
		}
		if err := tx.SetOccurrenceDate(ctx, req.OccurrenceID, req.NewDate); err != nil {
			return err
		}
		if _, err := tx.AppendRescheduleEvent(ctx, RescheduleEvent{
			OccurrenceID: req.OccurrenceID,
			Reason:       strings.TrimSpace(req.Reason),
			Kind:         req.Kind,
			CreatedAt:    s.Now(),
		}); err != nil {
			return err
		}
		var err error
		out, err = tx.GetOccurrence(ctx, req.OccurrenceID)
		return err
	})
	if err != nil {
		return Occurrence{}, err
	}
	return out, nil
}

// SignalRequest is a reschedule as the operator enters it: the occurrence,
// the date it should move to and whether the following occurrences move
// with it.
type SignalRequest struct {
	OccurrenceID int64
	NewDate      Date
	Reason       string
	ShiftLater   bool
}

// Signal derives the kind and month offset from the occurrence's current
// date and dispatches to RescheduleShiftAll or RescheduleShiftOne.
func (s *Service) Signal(ctx context.Context, req SignalRequest) (Occurrence, error) {
	if req.NewDate.IsZero() {
		return Occurrence{}, &DateError{}
	}
	if strings.TrimSpace(req.Reason) == "" {
		return Occurrence{}, invalid("reason", "required")
	}
	// Read outside the shifting transaction; the shift re-validates.
	occ, err := s.Store.GetOccurrence(ctx, req.OccurrenceID)
	if err != nil {
		return Occurrence{}, err
	}
	kind := Delay
	if req.NewDate.Before(occ.Date) {
		kind = Advance
	}

	if !req.ShiftLater {
		return s.RescheduleShiftOne(ctx, ShiftOneRequest{
			OccurrenceID: occ.ID,
			NewDate:      req.NewDate,
			Kind:         kind,
			Reason:       req.Reason,
		})
	}

	months := MonthsBetween(occ.Date, req.NewDate)
	if months < 0 {
		months = -months
	}
	if months == 0 {
		return Occurrence{}, invalid("new_date", "%s is less than a month from %s; move this occurrence only", req.NewDate, occ.Date)
	}
	return s.RescheduleShiftAll(ctx, ShiftAllRequest{
		RecurrenceID:          occ.RecurrenceID,
		ReferenceOccurrenceID: occ.ID,
		Months:                months,
		Direction:             kind,
		Reason:                req.Reason,
	})
}

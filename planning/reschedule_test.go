package planning_test

import (
	"context"
	"testing"

	"github.com/josoavj/Planificator/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bimonthly schedules six occurrences:
// 2025-01-06, 03-06, 05-06, 07-07, 09-08, 11-06.
func bimonthly(t *testing.T, svc *planning.Service) planning.ScheduleResult {
	t.Helper()
	pkg := createPackage(t, svc, "C-2025-001", "Dératisation")
	res := schedule(t, svc, pkg.TreatmentIDs[0], "2025-01-06", 2)
	require.Len(t, res.Occurrences, 6)
	return res
}

func occurrenceDates(t *testing.T, store planning.Reader, recurrenceID int64) []string {
	t.Helper()
	occs, err := store.ListOccurrences(context.Background(), recurrenceID)
	require.NoError(t, err)
	out := make([]string, len(occs))
	for i, o := range occs {
		out[i] = o.Date.String()
	}
	return out
}

func TestRescheduleShiftAll_Delay(t *testing.T) {
	// GIVEN: Six bimonthly occurrences
	// WHEN: Delaying occurrence 3 and later by one month
	// THEN: Occurrences 3..6 move, 1..2 do not, and one event is recorded

	svc, store := newTestService(t)
	ctx := context.Background()
	res := bimonthly(t, svc)
	ref := res.Occurrences[2]

	occ, err := svc.RescheduleShiftAll(ctx, planning.ShiftAllRequest{
		RecurrenceID:          res.RecurrenceID,
		ReferenceOccurrenceID: ref.OccurrenceID,
		Months:                1,
		Direction:             planning.Delay,
		Reason:                "Client absent",
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-06", occ.Date.String(), "caller sees the corrected date")
	assert.Equal(t, []string{
		"2025-01-06", "2025-03-06",
		"2025-06-06", "2025-08-07", "2025-10-08", "2025-12-06",
	}, occurrenceDates(t, store, res.RecurrenceID))

	inv, err := store.GetInvoice(ctx, res.Occurrences[5].InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "2025-12-06", inv.TreatmentDate.String())

	events, err := store.ListRescheduleEvents(ctx, ref.OccurrenceID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, planning.Delay, events[0].Kind)
	assert.Equal(t, "Client absent", events[0].Reason)
	assert.True(t, testNow.Equal(events[0].CreatedAt))
}

func TestRescheduleShiftAll_Advance(t *testing.T) {
	svc, store := newTestService(t)
	res := bimonthly(t, svc)

	_, err := svc.RescheduleShiftAll(context.Background(), planning.ShiftAllRequest{
		RecurrenceID:          res.RecurrenceID,
		ReferenceOccurrenceID: res.Occurrences[4].OccurrenceID,
		Months:                1,
		Direction:             planning.Advance,
		Reason:                "Demande du client",
	})
	require.NoError(t, err)

	dates := occurrenceDates(t, store, res.RecurrenceID)
	assert.Equal(t, []string{"2025-08-08", "2025-10-06"}, dates[4:])
	assert.Equal(t, "2025-07-07", dates[3])
}

func TestRescheduleShiftAll_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	res := bimonthly(t, svc)

	_, err := svc.RescheduleShiftAll(ctx, planning.ShiftAllRequest{
		RecurrenceID: res.RecurrenceID, ReferenceOccurrenceID: res.Occurrences[0].OccurrenceID,
		Months: 1, Direction: "Sideways",
	})
	assert.ErrorIs(t, err, planning.ErrValidation)

	_, err = svc.RescheduleShiftAll(ctx, planning.ShiftAllRequest{
		RecurrenceID: res.RecurrenceID + 1, ReferenceOccurrenceID: res.Occurrences[0].OccurrenceID,
		Months: 1, Direction: planning.Delay,
	})
	assert.ErrorIs(t, err, planning.ErrValidation, "occurrence from another recurrence")

	_, err = svc.RescheduleShiftAll(ctx, planning.ShiftAllRequest{
		RecurrenceID: res.RecurrenceID, ReferenceOccurrenceID: 999,
		Months: 1, Direction: planning.Delay,
	})
	assert.True(t, planning.IsNotFound(err))
}

func TestRescheduleShiftOne(t *testing.T) {
	// GIVEN: Six bimonthly occurrences
	// WHEN: Moving occurrence 2 alone
	// THEN: Only occurrence 2 changes

	svc, store := newTestService(t)
	ctx := context.Background()
	res := bimonthly(t, svc)
	before := occurrenceDates(t, store, res.RecurrenceID)

	occ, err := svc.RescheduleShiftOne(ctx, planning.ShiftOneRequest{
		OccurrenceID: res.Occurrences[1].OccurrenceID,
		NewDate:      planning.MustDate("2025-03-10"),
		Kind:         planning.Delay,
		Reason:       "Jour férié local",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", occ.Date.String())

	after := occurrenceDates(t, store, res.RecurrenceID)
	for i := range before {
		if i == 1 {
			assert.Equal(t, "2025-03-10", after[i])
			continue
		}
		assert.Equal(t, before[i], after[i])
	}

	events, err := store.ListRescheduleEvents(ctx, res.Occurrences[1].OccurrenceID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSignal(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	res := bimonthly(t, svc)

	// Keep the cadence: only this occurrence moves, earlier date means Advance.
	occ, err := svc.Signal(ctx, planning.SignalRequest{
		OccurrenceID: res.Occurrences[1].OccurrenceID,
		NewDate:      planning.MustDate("2025-03-04"),
		Reason:       "Avancé à la demande du client",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", occ.Date.String())
	events, err := store.ListRescheduleEvents(ctx, occ.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, planning.Advance, events[0].Kind)

	// Change the cadence: occurrence 4 (2025-07-07) and later move two months.
	occ, err = svc.Signal(ctx, planning.SignalRequest{
		OccurrenceID: res.Occurrences[3].OccurrenceID,
		NewDate:      planning.MustDate("2025-09-08"),
		Reason:       "Fermeture annuelle",
		ShiftLater:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-07", occ.Date.String())
	assert.Equal(t, []string{"2025-09-07", "2025-11-08", "2026-01-06"},
		occurrenceDates(t, store, res.RecurrenceID)[3:])
}

func TestSignal_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	res := bimonthly(t, svc)

	_, err := svc.Signal(ctx, planning.SignalRequest{
		OccurrenceID: res.Occurrences[0].OccurrenceID, NewDate: planning.MustDate("2025-01-10"),
	})
	assert.ErrorIs(t, err, planning.ErrValidation, "reason required")

	_, err = svc.Signal(ctx, planning.SignalRequest{
		OccurrenceID: res.Occurrences[0].OccurrenceID, NewDate: planning.MustDate("2025-01-10"),
		Reason: "x", ShiftLater: true,
	})
	assert.ErrorIs(t, err, planning.ErrValidation, "less than a month")
}

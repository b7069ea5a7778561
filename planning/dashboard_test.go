package planning_test

import (
	"context"
	"testing"
	"time"

	"github.com/josoavj/Planificator/planning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dashboardFixture schedules a monthly treatment from January and a single
// visit on 2025-04-15 under a second contract.
func dashboardFixture(t *testing.T) (*planning.Service, planning.ScheduleResult, planning.ScheduleResult) {
	t.Helper()
	svc, _ := newTestService(t)
	monthly := createPackage(t, svc, "C-2025-001", "Dératisation")
	single := createPackage(t, svc, "C-2025-002", "Désinfection")
	return svc,
		schedule(t, svc, monthly.TreatmentIDs[0], "2025-01-06", 1),
		schedule(t, svc, single.TreatmentIDs[0], "2025-04-15", 0)
}

func TestListInProgress(t *testing.T) {
	svc, monthly, _ := dashboardFixture(t)

	views, err := svc.ListInProgress(context.Background(), 2025, time.March)

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, monthly.Occurrences[2].OccurrenceID, views[0].OccurrenceID)
	assert.Equal(t, "2025-03-06", views[0].Date.String())
	assert.Equal(t, "Dératisation", views[0].TreatmentType)
	assert.Equal(t, "Hotel Colbert", views[0].ClientName)
}

func TestListUpcoming_SkipsTreatmentsInProgress(t *testing.T) {
	// GIVEN: A monthly treatment visited in March and April, and a single April visit
	// WHEN: Listing what comes after March
	// THEN: Only the single visit shows, the monthly one is already in progress

	svc, _, single := dashboardFixture(t)

	views, err := svc.ListUpcoming(context.Background(), 2025, time.March)

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, single.Occurrences[0].OccurrenceID, views[0].OccurrenceID)
	assert.Equal(t, "2025-04-15", views[0].Date.String())
}

func TestListInProgress_ExcludesCancelled(t *testing.T) {
	svc, monthly, _ := dashboardFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.TerminateContract(ctx, monthly.Occurrences[0].OccurrenceID, planning.Date{}))

	views, err := svc.ListInProgress(ctx, 2025, time.March)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestDashboard(t *testing.T) {
	svc, monthly, single := dashboardFixture(t)

	d, err := svc.Dashboard(context.Background(), 2025, time.March)

	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year)
	assert.Equal(t, time.March, d.Month)
	require.Len(t, d.InProgress, 1)
	assert.Equal(t, monthly.Occurrences[2].OccurrenceID, d.InProgress[0].OccurrenceID)
	require.Len(t, d.Upcoming, 1)
	assert.Equal(t, single.Occurrences[0].OccurrenceID, d.Upcoming[0].OccurrenceID)
}

func TestDashboard_DecemberRollsIntoJanuary(t *testing.T) {
	svc, _, _ := dashboardFixture(t)

	d, err := svc.Dashboard(context.Background(), 2025, time.December)

	require.NoError(t, err)
	assert.Len(t, d.InProgress, 1)
	assert.Empty(t, d.Upcoming, "nothing scheduled in January 2026")
}

func TestDashboard_MatchesListings(t *testing.T) {
	// GIVEN: The dashboard fixture
	// WHEN: Loading each month through Dashboard and through the two listings
	// THEN: Both paths return the same occurrences

	svc, _, _ := dashboardFixture(t)
	ctx := context.Background()

	for m := time.January; m <= time.December; m++ {
		d, err := svc.Dashboard(ctx, 2025, m)
		require.NoError(t, err)
		inProgress, err := svc.ListInProgress(ctx, 2025, m)
		require.NoError(t, err)
		upcoming, err := svc.ListUpcoming(ctx, 2025, m)
		require.NoError(t, err)

		assert.Equal(t, inProgress, d.InProgress, m.String())
		assert.Equal(t, upcoming, d.Upcoming, m.String())
	}
}

func TestDashboard_InvalidMonth(t *testing.T) {
	svc, _ := newTestService(t)

	d, err := svc.Dashboard(context.Background(), 2025, time.Month(13))

	assert.ErrorIs(t, err, planning.ErrValidation)
	assert.NotNil(t, d.InProgress)
	assert.NotNil(t, d.Upcoming)
}

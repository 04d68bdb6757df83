package services

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/voyago/trip-planner/internal/external"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
	"github.com/voyago/trip-planner/internal/store/sqlite"
)

func makeStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

// fakeAssistant returns canned suggestions or a canned error.
type fakeAssistant struct {
	suggestions *external.Suggestions
	err         error
	calls       int
}

func (f *fakeAssistant) Research(_ context.Context, _ *model.Trip) (*external.Suggestions, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestions, nil
}

func newTripService(t *testing.T, assistant external.PlanningAssistant) (*TripService, store.Store) {
	t.Helper()
	st := makeStore(t)
	return NewTripService(st, assistant, zerolog.Nop()), st
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateTrip_DefaultsAndSeedBudget(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title:       "Kyoto in Autumn",
		Destination: "Kyoto",
		StartDate:   day(2026, 11, 10),
		EndDate:     day(2026, 11, 14),
	})
	require.NoError(t, err)
	require.NotEmpty(t, trip.TripID)
	require.Equal(t, model.StatusPlanning, trip.Status)
	require.Equal(t, 2, trip.Preferences.Adults)
	require.Equal(t, model.TierModerate, trip.Preferences.HotelBudget)
	require.True(t, trip.Preferences.FamilyFriendly)
	require.Equal(t, "USD", trip.Preferences.Currency)

	require.NotNil(t, trip.Budget)
	require.Equal(t, float64(0), trip.Budget.Total)
	require.Equal(t, "USD", trip.Budget.Currency)
	require.Contains(t, trip.Budget.Breakdown, categoryActivities)
	require.Contains(t, trip.Budget.Breakdown, categoryMiscellaneous)
}

func TestCreateTrip_SeedBudgetFromPreferenceEstimates(t *testing.T) {
	svc, _ := newTripService(t, nil)

	transport, food := 300.0, 450.0
	trip, err := svc.CreateTrip(context.Background(), CreateTripInput{
		Title:       "Lisbon",
		Destination: "Lisbon",
		StartDate:   day(2026, 5, 1),
		EndDate:     day(2026, 5, 3),
		Preferences: &model.PreferencesPatch{
			TransportationBudget: &transport,
			FoodBudget:           &food,
		},
	})
	require.NoError(t, err)
	require.Equal(t, 750.0, trip.Budget.Total)
	require.Equal(t, 300.0, trip.Budget.Breakdown[categoryTransportation])
	require.Equal(t, 450.0, trip.Budget.Breakdown[categoryFood])
}

func TestCreateTrip_Validation(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()
	negative := -10.0
	badTier := "PALATIAL"

	cases := []struct {
		name string
		in   CreateTripInput
	}{
		{"missing title", CreateTripInput{
			Destination: "Rome", StartDate: day(2026, 6, 1), EndDate: day(2026, 6, 2)}},
		{"missing destination", CreateTripInput{
			Title: "Rome", StartDate: day(2026, 6, 1), EndDate: day(2026, 6, 2)}},
		{"end before start", CreateTripInput{
			Title: "Rome", Destination: "Rome",
			StartDate: day(2026, 6, 5), EndDate: day(2026, 6, 1)}},
		{"negative budget estimate", CreateTripInput{
			Title: "Rome", Destination: "Rome",
			StartDate: day(2026, 6, 1), EndDate: day(2026, 6, 2),
			Preferences: &model.PreferencesPatch{FoodBudget: &negative}}},
		{"unknown hotel tier", CreateTripInput{
			Title: "Rome", Destination: "Rome",
			StartDate: day(2026, 6, 1), EndDate: day(2026, 6, 2),
			Preferences: &model.PreferencesPatch{HotelBudget: &badTier}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTrip(ctx, tc.in)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestListTrips_Validation(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	_, err := svc.ListTrips(ctx, model.ListTripsRequest{Page: 0, PageSize: 10})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.ListTrips(ctx, model.ListTripsRequest{Page: 1, PageSize: 0})
	require.ErrorIs(t, err, model.ErrValidation)

	bogus := model.TripStatus("vacationing")
	_, err = svc.ListTrips(ctx, model.ListTripsRequest{Page: 1, PageSize: 10, Status: &bogus})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateTrip_PartialMerge(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title:       "Original Title",
		Destination: "Oslo",
		StartDate:   day(2026, 7, 1),
		EndDate:     day(2026, 7, 5),
	})
	require.NoError(t, err)

	newTitle := "Renamed"
	children := 2
	got, err := svc.UpdateTrip(ctx, trip.TripID, &model.TripUpdate{
		Title:       &newTitle,
		Preferences: &model.PreferencesPatch{Children: &children},
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, "Oslo", got.Destination)
	require.Equal(t, day(2026, 7, 1), got.StartDate.UTC())
	require.Equal(t, 2, got.Preferences.Children)
	// Untouched preference fields survive the merge.
	require.Equal(t, 2, got.Preferences.Adults)
	require.Equal(t, model.TierModerate, got.Preferences.HotelBudget)
}

func TestUpdateTrip_StatusTransitions(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Berlin", Destination: "Berlin",
		StartDate: day(2026, 8, 1), EndDate: day(2026, 8, 3),
	})
	require.NoError(t, err)

	inProgress := model.StatusInProgress
	got, err := svc.UpdateTrip(ctx, trip.TripID, &model.TripUpdate{Status: &inProgress})
	require.NoError(t, err)
	require.Equal(t, model.StatusInProgress, got.Status)

	bogus := model.TripStatus("eloped")
	_, err = svc.UpdateTrip(ctx, trip.TripID, &model.TripUpdate{Status: &bogus})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateTrip_DateRangeGuardsScheduledDays(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Alps", Destination: "Innsbruck",
		StartDate: day(2026, 2, 1), EndDate: day(2026, 2, 10),
	})
	require.NoError(t, err)

	_, err = svc.AddItineraryDay(ctx, trip.TripID, AddDayInput{Date: day(2026, 2, 8)})
	require.NoError(t, err)

	// Shrinking the range past the scheduled day must fail.
	newEnd := day(2026, 2, 5)
	_, err = svc.UpdateTrip(ctx, trip.TripID, &model.TripUpdate{EndDate: &newEnd})
	require.ErrorIs(t, err, model.ErrValidation)

	// Shrinking while keeping the day is fine.
	newEnd = day(2026, 2, 8)
	got, err := svc.UpdateTrip(ctx, trip.TripID, &model.TripUpdate{EndDate: &newEnd})
	require.NoError(t, err)
	require.Equal(t, newEnd, got.EndDate.UTC())
}

func TestUpdateTrip_NotFound(t *testing.T) {
	svc, _ := newTripService(t, nil)
	title := "x"
	_, err := svc.UpdateTrip(context.Background(), "no-such-trip", &model.TripUpdate{Title: &title})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAddItineraryDay_OutsideRange(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Crete", Destination: "Chania",
		StartDate: day(2026, 9, 1), EndDate: day(2026, 9, 5),
	})
	require.NoError(t, err)

	_, err = svc.AddItineraryDay(ctx, trip.TripID, AddDayInput{Date: day(2026, 9, 6)})
	require.ErrorIs(t, err, model.ErrValidation)

	d, err := svc.AddItineraryDay(ctx, trip.TripID, AddDayInput{Date: day(2026, 9, 5), Notes: "departure"})
	require.NoError(t, err)
	require.Equal(t, "departure", d.Notes)
}

func TestAddActivity_ValidationAndBudgetRecalc(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Porto", Destination: "Porto",
		StartDate: day(2026, 4, 1), EndDate: day(2026, 4, 3),
	})
	require.NoError(t, err)
	d, err := svc.AddItineraryDay(ctx, trip.TripID, AddDayInput{Date: day(2026, 4, 2)})
	require.NoError(t, err)

	at := func(h, m int) time.Time {
		return time.Date(2026, 4, 2, h, m, 0, 0, time.UTC)
	}

	_, err = svc.AddActivity(ctx, d.DayID, AddActivityInput{
		Name: "River cruise", StartTime: at(14, 0), EndTime: at(12, 0)})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AddActivity(ctx, d.DayID, AddActivityInput{
		Name:      "Wrong day",
		StartTime: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)})
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.AddActivity(ctx, d.DayID, AddActivityInput{
		Name: "Free walking tour", StartTime: at(10, 0), EndTime: at(12, 0), Cost: -5})
	require.ErrorIs(t, err, model.ErrValidation)

	act, err := svc.AddActivity(ctx, d.DayID, AddActivityInput{
		Name: "River cruise", StartTime: at(14, 0), EndTime: at(16, 0), Cost: 35.50})
	require.NoError(t, err)
	require.Equal(t, 35.50, act.Cost)

	got, err := svc.GetTrip(ctx, trip.TripID)
	require.NoError(t, err)
	require.Equal(t, 35.50, got.Budget.Breakdown[categoryActivities])
	require.Equal(t, 35.50, got.Budget.Total)
}

func TestSetAccommodation_Validation(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Nice", Destination: "Nice",
		StartDate: day(2026, 6, 10), EndDate: day(2026, 6, 12),
	})
	require.NoError(t, err)
	d, err := svc.AddItineraryDay(ctx, trip.TripID, AddDayInput{Date: day(2026, 6, 10)})
	require.NoError(t, err)

	checkIn := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	_, err = svc.SetAccommodation(ctx, d.DayID, SetAccommodationInput{
		Name: "Hotel Negresco", CheckIn: checkIn, CheckOut: checkIn})
	require.ErrorIs(t, err, model.ErrValidation)

	acc, err := svc.SetAccommodation(ctx, d.DayID, SetAccommodationInput{
		Name:     "Hotel Negresco",
		Address:  "37 Prom. des Anglais",
		CheckIn:  checkIn,
		CheckOut: time.Date(2026, 6, 11, 11, 0, 0, 0, time.UTC),
		Cost:     220,
	})
	require.NoError(t, err)
	require.Equal(t, 220.0, acc.Cost)

	got, err := svc.GetTrip(ctx, trip.TripID)
	require.NoError(t, err)
	require.Equal(t, 220.0, got.Budget.Breakdown[categoryAccommodations])
}

func TestBuildItinerary_SchedulesAndFilters(t *testing.T) {
	maxPrice := 50.0
	assistant := &fakeAssistant{suggestions: &external.Suggestions{
		Activities: []external.ActivitySuggestion{
			{Name: "Old town walk", Price: 0, FamilyFriendly: true, Accessible: true},
			{Name: "Helicopter tour", Price: 400, FamilyFriendly: true, Accessible: true},
			{Name: "Whisky tasting", Price: 30, FamilyFriendly: false, Accessible: true},
			{Name: "Castle visit", Price: 20, FamilyFriendly: true, Accessible: true, DurationMinutes: 90},
			{Name: "Boat trip", Price: 45, FamilyFriendly: true, Accessible: true},
			{Name: "Museum", Price: 15, FamilyFriendly: true, Accessible: true},
		},
		Stay: &external.StaySuggestion{Name: "Grassmarket Inn", Address: "1 Grassmarket", Price: 120},
	}}
	svc, _ := newTripService(t, assistant)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Edinburgh", Destination: "Edinburgh",
		StartDate: day(2026, 8, 1), EndDate: day(2026, 8, 2),
		Preferences: &model.PreferencesPatch{MaxActivityPrice: &maxPrice},
	})
	require.NoError(t, err)

	got, err := svc.BuildItinerary(ctx, trip.TripID)
	require.NoError(t, err)
	require.Equal(t, 1, assistant.calls)
	require.Len(t, got.ItineraryDays, 2)

	// Helicopter tour is over the price cap and the tasting is not family
	// friendly; four candidates remain, packed three to the first day.
	day1 := got.ItineraryDays[0]
	require.Len(t, day1.Activities, 3)
	require.Equal(t, "Old town walk", day1.Activities[0].Name)
	require.Equal(t, 9, day1.Activities[0].StartTime.UTC().Hour())
	require.Equal(t, 11, day1.Activities[0].EndTime.UTC().Hour())
	// Half-hour buffer after the first two-hour slot.
	require.Equal(t, 11, day1.Activities[1].StartTime.UTC().Hour())
	require.Equal(t, 30, day1.Activities[1].StartTime.UTC().Minute())
	// Castle visit keeps its suggested 90 minutes.
	require.Equal(t, "Boat trip", day1.Activities[2].Name)
	require.Equal(t, 90*time.Minute,
		day1.Activities[1].EndTime.Sub(day1.Activities[1].StartTime))

	day2 := got.ItineraryDays[1]
	require.Len(t, day2.Activities, 1)
	require.Equal(t, "Museum", day2.Activities[0].Name)

	// Stay every night except the last day, 3 PM in and 11 AM out.
	require.NotNil(t, day1.Accommodation)
	require.Equal(t, 15, day1.Accommodation.CheckIn.UTC().Hour())
	require.Equal(t, 11, day1.Accommodation.CheckOut.UTC().Hour())
	require.Equal(t, day(2026, 8, 2), dateOnly(day1.Accommodation.CheckOut))
	require.Nil(t, day2.Accommodation)

	// Budget rebuilt from the generated plan: 0+20+45+15 activities, 120 stay.
	require.Equal(t, 80.0, got.Budget.Breakdown[categoryActivities])
	require.Equal(t, 120.0, got.Budget.Breakdown[categoryAccommodations])
	require.Equal(t, 200.0, got.Budget.Total)
}

func TestBuildItinerary_ReplacesExistingPlan(t *testing.T) {
	assistant := &fakeAssistant{suggestions: &external.Suggestions{}}
	svc, _ := newTripService(t, assistant)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Reuse", Destination: "Ghent",
		StartDate: day(2026, 3, 1), EndDate: day(2026, 3, 2),
	})
	require.NoError(t, err)
	_, err = svc.AddItineraryDay(ctx, trip.TripID, AddDayInput{Date: day(2026, 3, 1), Notes: "manual"})
	require.NoError(t, err)

	got, err := svc.BuildItinerary(ctx, trip.TripID)
	require.NoError(t, err)
	require.Len(t, got.ItineraryDays, 2)
	for _, d := range got.ItineraryDays {
		require.Empty(t, d.Notes)
	}
}

func TestBuildItinerary_AssistantFailureFallsBack(t *testing.T) {
	assistant := &fakeAssistant{err: errors.New("assistant is down")}
	svc, _ := newTripService(t, assistant)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Fallback", Destination: "Turin",
		StartDate: day(2026, 10, 1), EndDate: day(2026, 10, 3),
	})
	require.NoError(t, err)

	got, err := svc.BuildItinerary(ctx, trip.TripID)
	require.NoError(t, err)
	require.Len(t, got.ItineraryDays, 3)
	for _, d := range got.ItineraryDays {
		require.Empty(t, d.Activities)
		require.Nil(t, d.Accommodation)
	}
}

func TestDeleteTrip(t *testing.T) {
	svc, _ := newTripService(t, nil)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title: "Gone", Destination: "Gone",
		StartDate: day(2026, 1, 1), EndDate: day(2026, 1, 2),
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTrip(ctx, trip.TripID))
	require.ErrorIs(t, svc.DeleteTrip(ctx, trip.TripID), model.ErrNotFound)
	_, err = svc.GetTrip(ctx, trip.TripID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

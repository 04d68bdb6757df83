package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)

	// Trips: create and read back
	created, err := s.Trips().Create(ctx, &model.Trip{
		Title:       "Boston Family Trip",
		Destination: "Boston",
		StartDate:   start,
		EndDate:     end,
		Status:      model.StatusPlanning,
		Preferences: model.DefaultPreferences(),
	})
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	if created.TripID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("CreateTrip: missing id or timestamps: %+v", created)
	}
	got, err := s.Trips().Get(ctx, created.TripID)
	if err != nil || got.Title != "Boston Family Trip" || got.Status != model.StatusPlanning {
		t.Fatalf("GetTrip: got=%+v err=%v", got, err)
	}
	if !got.StartDate.Equal(start) || !got.EndDate.Equal(end) {
		t.Fatalf("GetTrip: dates: got start=%v end=%v", got.StartDate, got.EndDate)
	}
	if got.Preferences.Adults != 2 || got.Preferences.HotelBudget != model.TierModerate {
		t.Fatalf("GetTrip: preferences not round-tripped: %+v", got.Preferences)
	}

	// Not-found mapping
	if _, err := s.Trips().Get(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetTrip(absent): want ErrNotFound, got %v", err)
	}

	// Update: changing one field leaves the rest intact
	got.Title = "Boston With Kids"
	updated, err := s.Trips().Update(ctx, got)
	if err != nil {
		t.Fatalf("UpdateTrip: %v", err)
	}
	again, err := s.Trips().Get(ctx, created.TripID)
	if err != nil || again.Title != "Boston With Kids" || again.Destination != "Boston" {
		t.Fatalf("UpdateTrip readback: got=%+v err=%v", again, err)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatalf("UpdateTrip: updated_at did not advance")
	}

	// Itinerary days and children
	day, err := s.Itineraries().AddDay(ctx, &model.ItineraryDay{
		TripID: created.TripID,
		Date:   start,
		Notes:  "Day 1 of the trip",
	})
	if err != nil {
		t.Fatalf("AddDay: %v", err)
	}
	loc := "Museum of Science"
	if _, err := s.Itineraries().AddActivity(ctx, &model.Activity{
		DayID:       day.DayID,
		Name:        "Science Museum",
		StartTime:   start.Add(9 * time.Hour),
		EndTime:     start.Add(11 * time.Hour),
		Location:    &loc,
		Cost:        60,
		BookingInfo: map[string]interface{}{"confirmation": "SCI-100"},
	}); err != nil {
		t.Fatalf("AddActivity: %v", err)
	}
	if _, err := s.Itineraries().SetAccommodation(ctx, &model.Accommodation{
		DayID:    day.DayID,
		Name:     "Harborside Inn",
		Address:  "185 State St",
		CheckIn:  start.Add(15 * time.Hour),
		CheckOut: start.Add(35 * time.Hour),
		Cost:     220,
	}); err != nil {
		t.Fatalf("SetAccommodation: %v", err)
	}
	// Second Put replaces, not duplicates
	if _, err := s.Itineraries().SetAccommodation(ctx, &model.Accommodation{
		DayID:    day.DayID,
		Name:     "Seaport Hotel",
		Address:  "1 Seaport Ln",
		CheckIn:  start.Add(15 * time.Hour),
		CheckOut: start.Add(35 * time.Hour),
		Cost:     260,
	}); err != nil {
		t.Fatalf("SetAccommodation upsert: %v", err)
	}

	days, err := s.Itineraries().ListDays(ctx, created.TripID)
	if err != nil || len(days) != 1 {
		t.Fatalf("ListDays: n=%d err=%v", len(days), err)
	}
	if len(days[0].Activities) != 1 || days[0].Activities[0].Name != "Science Museum" {
		t.Fatalf("ListDays: activities=%+v", days[0].Activities)
	}
	if days[0].Activities[0].BookingInfo["confirmation"] != "SCI-100" {
		t.Fatalf("ListDays: booking info not round-tripped: %+v", days[0].Activities[0].BookingInfo)
	}
	if days[0].Accommodation == nil || days[0].Accommodation.Name != "Seaport Hotel" {
		t.Fatalf("ListDays: accommodation=%+v", days[0].Accommodation)
	}

	// Budget upsert and readback
	if _, err := s.Budgets().Put(ctx, &model.Budget{
		TripID:    created.TripID,
		Total:     1500,
		Currency:  "USD",
		Breakdown: map[string]float64{"activities": 60, "accommodations": 260},
	}); err != nil {
		t.Fatalf("PutBudget: %v", err)
	}
	budget, err := s.Budgets().GetByTrip(ctx, created.TripID)
	if err != nil || budget.Total != 1500 || budget.Breakdown["accommodations"] != 260 {
		t.Fatalf("GetBudget: got=%+v err=%v", budget, err)
	}

	// Aggregate read
	agg, err := s.Trips().GetAggregate(ctx, created.TripID)
	if err != nil {
		t.Fatalf("GetAggregate: %v", err)
	}
	if len(agg.ItineraryDays) != 1 || agg.Budget == nil || agg.Budget.Total != 1500 {
		t.Fatalf("GetAggregate: days=%d budget=%+v", len(agg.ItineraryDays), agg.Budget)
	}

	// Documents
	if _, err := s.Documents().Put(ctx, &model.Document{
		TripID: created.TripID,
		Type:   model.DocItinerary,
		Path:   "documents/" + created.TripID + "/itinerary.md",
	}); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	docs, err := s.Documents().ListByTrip(ctx, created.TripID)
	if err != nil || len(docs) != 1 || docs[0].Type != model.DocItinerary {
		t.Fatalf("ListDocuments: docs=%+v err=%v", docs, err)
	}

	// Monitoring series in chronological order
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		if err := s.Monitoring().AppendWeather(ctx, &model.WeatherUpdate{
			TripID:       created.TripID,
			TemperatureC: 20 + float64(i),
			Conditions:   "clear",
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("AppendWeather: %v", err)
		}
	}
	if err := s.Monitoring().AppendAlert(ctx, &model.TravelAlert{
		TripID:    created.TripID,
		AlertType: "transit",
		Message:   "Green Line delays",
		Severity:  model.SeverityWarning,
		Timestamp: base,
	}); err != nil {
		t.Fatalf("AppendAlert: %v", err)
	}
	weather, err := s.Monitoring().ListWeather(ctx, created.TripID, base)
	if err != nil || len(weather) != 3 {
		t.Fatalf("ListWeather: n=%d err=%v", len(weather), err)
	}
	for i := 1; i < len(weather); i++ {
		if weather[i].Timestamp.Before(weather[i-1].Timestamp) {
			t.Fatalf("ListWeather: out of order at %d", i)
		}
	}
	// since filter excludes earlier records
	late, err := s.Monitoring().ListWeather(ctx, created.TripID, base.Add(2*time.Minute))
	if err != nil || len(late) != 1 {
		t.Fatalf("ListWeather(since): n=%d err=%v", len(late), err)
	}
	alerts, err := s.Monitoring().ListAlerts(ctx, created.TripID, base)
	if err != nil || len(alerts) != 1 || alerts[0].Severity != model.SeverityWarning {
		t.Fatalf("ListAlerts: alerts=%+v err=%v", alerts, err)
	}

	// Pagination over 12 trips (the one above plus 11 more)
	for i := 0; i < 11; i++ {
		if _, err := s.Trips().Create(ctx, &model.Trip{
			Title:       fmt.Sprintf("Trip %02d", i),
			Destination: "Elsewhere",
			StartDate:   start,
			EndDate:     end,
			Status:      model.StatusPlanning,
			Preferences: model.DefaultPreferences(),
		}); err != nil {
			t.Fatalf("CreateTrip %d: %v", i, err)
		}
	}
	page2, total, err := s.Trips().List(ctx, model.ListTripsRequest{Page: 2, PageSize: 5})
	if err != nil || total != 12 || len(page2) != 5 {
		t.Fatalf("List page 2: n=%d total=%d err=%v", len(page2), total, err)
	}
	page3, _, err := s.Trips().List(ctx, model.ListTripsRequest{Page: 3, PageSize: 5})
	if err != nil || len(page3) != 2 {
		t.Fatalf("List page 3: n=%d err=%v", len(page3), err)
	}
	page4, _, err := s.Trips().List(ctx, model.ListTripsRequest{Page: 4, PageSize: 5})
	if err != nil || len(page4) != 0 {
		t.Fatalf("List page 4: n=%d err=%v", len(page4), err)
	}
	status := model.StatusPlanning
	_, filtered, err := s.Trips().List(ctx, model.ListTripsRequest{Page: 1, PageSize: 5, Status: &status})
	if err != nil || filtered != 12 {
		t.Fatalf("List filtered: total=%d err=%v", filtered, err)
	}
	other := model.StatusCompleted
	_, none, err := s.Trips().List(ctx, model.ListTripsRequest{Page: 1, PageSize: 5, Status: &other})
	if err != nil || none != 0 {
		t.Fatalf("List filtered (completed): total=%d err=%v", none, err)
	}

	// Delete cascades and is NotFound afterwards
	if err := s.Trips().Delete(ctx, created.TripID); err != nil {
		t.Fatalf("DeleteTrip: %v", err)
	}
	if _, err := s.Trips().Get(ctx, created.TripID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetTrip after delete: want ErrNotFound, got %v", err)
	}
	if days, err := s.Itineraries().ListDays(ctx, created.TripID); err != nil || len(days) != 0 {
		t.Fatalf("ListDays after delete: n=%d err=%v", len(days), err)
	}
	if _, err := s.Budgets().GetByTrip(ctx, created.TripID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetBudget after delete: want ErrNotFound, got %v", err)
	}
	if err := s.Trips().Delete(ctx, created.TripID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteTrip twice: want ErrNotFound, got %v", err)
	}
}

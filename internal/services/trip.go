package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/voyago/trip-planner/internal/external"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
)

// Itinerary builder constants. Days start at 9 AM local, activities default
// to two hours with a half-hour gap, and stays run 3 PM check-in to 11 AM
// check-out the next morning.
const (
	dayStartHour          = 9
	maxActivitiesPerDay   = 3
	defaultActivityLen    = 2 * time.Hour
	activityBuffer        = 30 * time.Minute
	checkInHour           = 15
	checkOutHour          = 11
	defaultResearchWindow = 30 * time.Second
)

// Budget breakdown categories.
const (
	categoryActivities     = "activities"
	categoryAccommodations = "accommodations"
	categoryTransportation = "transportation"
	categoryFood           = "food"
	categoryMiscellaneous  = "miscellaneous"
)

// TripService owns trip lifecycle, itinerary building and budget upkeep.
type TripService struct {
	store     store.Store
	assistant external.PlanningAssistant
	log       zerolog.Logger
}

func NewTripService(st store.Store, assistant external.PlanningAssistant, log zerolog.Logger) *TripService {
	return &TripService{
		store:     st,
		assistant: assistant,
		log:       log.With().Str("component", "trip-service").Logger(),
	}
}

// CreateTripInput is the validated payload for a new trip.
type CreateTripInput struct {
	Title       string
	Description *string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Preferences *model.PreferencesPatch
}

// CreateTrip persists a new trip in the planning state with defaulted
// preferences and a seed budget derived from them.
func (s *TripService) CreateTrip(ctx context.Context, in CreateTripInput) (*model.Trip, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.Wrap(model.ErrValidation, "title is required")
	}
	if strings.TrimSpace(in.Destination) == "" {
		return nil, errors.Wrap(model.ErrValidation, "destination is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, errors.Wrap(model.ErrValidation, "start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, errors.Wrap(model.ErrValidation, "end_date must not precede start_date")
	}
	prefs := model.DefaultPreferences().Merge(in.Preferences)
	if err := validatePreferences(prefs); err != nil {
		return nil, err
	}

	trip := &model.Trip{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Destination: strings.TrimSpace(in.Destination),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      model.StatusPlanning,
		Preferences: prefs,
	}
	created, err := s.store.Trips().Create(ctx, trip)
	if err != nil {
		return nil, err
	}

	budget := budgetFromPreferences(created.TripID, prefs)
	if created.Budget, err = s.store.Budgets().Put(ctx, budget); err != nil {
		return nil, err
	}
	created.ItineraryDays = []*model.ItineraryDay{}
	s.log.Info().Str("trip_id", created.TripID).Str("destination", created.Destination).Msg("trip created")
	return created, nil
}

// ListTrips returns one page of trips with the filtered total.
func (s *TripService) ListTrips(ctx context.Context, req model.ListTripsRequest) (*model.TripPage, error) {
	if req.Page < 1 {
		return nil, errors.Wrap(model.ErrValidation, "page must be at least 1")
	}
	if req.PageSize < 1 {
		return nil, errors.Wrap(model.ErrValidation, "page_size must be at least 1")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, errors.Wrapf(model.ErrValidation, "unknown status %q", *req.Status)
	}
	trips, total, err := s.store.Trips().List(ctx, req)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []*model.Trip{}
	}
	return &model.TripPage{
		Trips:    trips,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}

// GetTrip returns the trip with its full itinerary and budget.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*model.Trip, error) {
	return s.store.Trips().GetAggregate(ctx, tripID)
}

// UpdateTrip applies the non-nil fields of upd. Date changes are checked
// against both each other and any itinerary days already scheduled.
func (s *TripService) UpdateTrip(ctx context.Context, tripID string, upd *model.TripUpdate) (*model.Trip, error) {
	trip, err := s.store.Trips().Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, errors.Wrap(model.ErrValidation, "title must not be empty")
		}
		trip.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		trip.Description = upd.Description
	}
	if upd.Destination != nil {
		if strings.TrimSpace(*upd.Destination) == "" {
			return nil, errors.Wrap(model.ErrValidation, "destination must not be empty")
		}
		trip.Destination = strings.TrimSpace(*upd.Destination)
	}
	if upd.StartDate != nil {
		trip.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		trip.EndDate = *upd.EndDate
	}
	if trip.EndDate.Before(trip.StartDate) {
		return nil, errors.Wrap(model.ErrValidation, "end_date must not precede start_date")
	}
	if upd.StartDate != nil || upd.EndDate != nil {
		days, err := s.store.Itineraries().ListDays(ctx, tripID)
		if err != nil {
			return nil, err
		}
		for _, d := range days {
			if !withinTrip(d.Date, trip.StartDate, trip.EndDate) {
				return nil, errors.Wrapf(model.ErrValidation,
					"itinerary day %s falls outside the new date range", d.Date.Format("2006-01-02"))
			}
		}
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, errors.Wrapf(model.ErrValidation, "unknown status %q", *upd.Status)
		}
		trip.Status = *upd.Status
	}
	if upd.Preferences != nil {
		merged := trip.Preferences.Merge(upd.Preferences)
		if err := validatePreferences(merged); err != nil {
			return nil, err
		}
		trip.Preferences = merged
	}
	if _, err := s.store.Trips().Update(ctx, trip); err != nil {
		return nil, err
	}
	return s.store.Trips().GetAggregate(ctx, tripID)
}

// DeleteTrip removes the trip and everything it owns.
func (s *TripService) DeleteTrip(ctx context.Context, tripID string) error {
	return s.store.Trips().Delete(ctx, tripID)
}

// AddDayInput is the payload for a manually added itinerary day.
type AddDayInput struct {
	Date  time.Time
	Notes string
}

// AddItineraryDay appends a day to the trip. The date must fall within the
// trip's range.
func (s *TripService) AddItineraryDay(ctx context.Context, tripID string, in AddDayInput) (*model.ItineraryDay, error) {
	trip, err := s.store.Trips().Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, errors.Wrap(model.ErrValidation, "date is required")
	}
	if !withinTrip(in.Date, trip.StartDate, trip.EndDate) {
		return nil, errors.Wrap(model.ErrValidation, "day date falls outside the trip range")
	}
	day := &model.ItineraryDay{
		TripID: tripID,
		Date:   in.Date,
		Notes:  in.Notes,
	}
	return s.store.Itineraries().AddDay(ctx, day)
}

// AddActivityInput is the payload for a manually scheduled activity.
type AddActivityInput struct {
	Name        string
	Description *string
	StartTime   time.Time
	EndTime     time.Time
	Location    *string
	Cost        float64
	BookingInfo map[string]interface{}
}

// AddActivity schedules an activity on an existing day. Start and end must
// fall on the day's date and the cost must not be negative.
func (s *TripService) AddActivity(ctx context.Context, dayID string, in AddActivityInput) (*model.Activity, error) {
	day, err := s.store.Itineraries().GetDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.Wrap(model.ErrValidation, "name is required")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, errors.Wrap(model.ErrValidation, "start_time and end_time are required")
	}
	if in.EndTime.Before(in.StartTime) {
		return nil, errors.Wrap(model.ErrValidation, "end_time must not precede start_time")
	}
	if !sameDate(in.StartTime, day.Date) || !sameDate(in.EndTime, day.Date) {
		return nil, errors.Wrap(model.ErrValidation, "activity times must fall on the day's date")
	}
	if in.Cost < 0 {
		return nil, errors.Wrap(model.ErrValidation, "cost must not be negative")
	}
	act := &model.Activity{
		DayID:       dayID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Location:    in.Location,
		Cost:        in.Cost,
		BookingInfo: in.BookingInfo,
	}
	created, err := s.store.Itineraries().AddActivity(ctx, act)
	if err != nil {
		return nil, err
	}
	if err := s.recalculateBudget(ctx, day.TripID); err != nil {
		return nil, err
	}
	return created, nil
}

// SetAccommodationInput is the payload for a day's overnight stay.
type SetAccommodationInput struct {
	Name        string
	Address     string
	CheckIn     time.Time
	CheckOut    time.Time
	Cost        float64
	BookingInfo map[string]interface{}
}

// SetAccommodation sets or replaces the single stay attached to a day.
func (s *TripService) SetAccommodation(ctx context.Context, dayID string, in SetAccommodationInput) (*model.Accommodation, error) {
	day, err := s.store.Itineraries().GetDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.Wrap(model.ErrValidation, "name is required")
	}
	if in.CheckIn.IsZero() || in.CheckOut.IsZero() {
		return nil, errors.Wrap(model.ErrValidation, "check_in and check_out are required")
	}
	if !in.CheckOut.After(in.CheckIn) {
		return nil, errors.Wrap(model.ErrValidation, "check_out must be after check_in")
	}
	if in.Cost < 0 {
		return nil, errors.Wrap(model.ErrValidation, "cost must not be negative")
	}
	acc := &model.Accommodation{
		DayID:       dayID,
		Name:        strings.TrimSpace(in.Name),
		Address:     in.Address,
		CheckIn:     in.CheckIn,
		CheckOut:    in.CheckOut,
		Cost:        in.Cost,
		BookingInfo: in.BookingInfo,
	}
	stored, err := s.store.Itineraries().SetAccommodation(ctx, acc)
	if err != nil {
		return nil, err
	}
	if err := s.recalculateBudget(ctx, day.TripID); err != nil {
		return nil, err
	}
	return stored, nil
}

// BuildItinerary replaces the trip's itinerary with a generated one. The
// planning assistant is consulted for suggestions; when it fails the build
// proceeds with empty suggestions so the trip still gets a dated skeleton.
func (s *TripService) BuildItinerary(ctx context.Context, tripID string) (*model.Trip, error) {
	trip, err := s.store.Trips().Get(ctx, tripID)
	if err != nil {
		return nil, err
	}

	sugg := &external.Suggestions{}
	if s.assistant != nil {
		rctx, cancel := context.WithTimeout(ctx, defaultResearchWindow)
		res, err := s.assistant.Research(rctx, trip)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("trip_id", tripID).Msg("research failed, building bare itinerary")
		} else if res != nil {
			sugg = res
		}
	}
	candidates := matchPreferences(sugg.Activities, trip.Preferences)

	if err := s.store.Itineraries().DeleteByTrip(ctx, tripID); err != nil {
		return nil, err
	}

	dates := tripDates(trip.StartDate, trip.EndDate)
	next := 0
	for i, date := range dates {
		day, err := s.store.Itineraries().AddDay(ctx, &model.ItineraryDay{
			TripID: tripID,
			Date:   date,
		})
		if err != nil {
			return nil, err
		}
		cursor := time.Date(date.Year(), date.Month(), date.Day(), dayStartHour, 0, 0, 0, time.UTC)
		for n := 0; n < maxActivitiesPerDay && next < len(candidates); n++ {
			c := candidates[next]
			next++
			length := defaultActivityLen
			if c.DurationMinutes > 0 {
				length = time.Duration(c.DurationMinutes) * time.Minute
			}
			act := &model.Activity{
				DayID:       day.DayID,
				Name:        c.Name,
				StartTime:   cursor,
				EndTime:     cursor.Add(length),
				Cost:        c.Price,
				BookingInfo: c.Booking,
			}
			if c.Description != "" {
				desc := c.Description
				act.Description = &desc
			}
			if c.Location != "" {
				loc := c.Location
				act.Location = &loc
			}
			if _, err := s.store.Itineraries().AddActivity(ctx, act); err != nil {
				return nil, err
			}
			cursor = act.EndTime.Add(activityBuffer)
		}
		// No stay on the last day; travelers check out that morning.
		if i < len(dates)-1 && sugg.Stay != nil {
			nextDay := dates[i+1]
			acc := &model.Accommodation{
				DayID:       day.DayID,
				Name:        sugg.Stay.Name,
				Address:     sugg.Stay.Address,
				CheckIn:     time.Date(date.Year(), date.Month(), date.Day(), checkInHour, 0, 0, 0, time.UTC),
				CheckOut:    time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(), checkOutHour, 0, 0, 0, time.UTC),
				Cost:        sugg.Stay.Price,
				BookingInfo: sugg.Stay.Booking,
			}
			if _, err := s.store.Itineraries().SetAccommodation(ctx, acc); err != nil {
				return nil, err
			}
		}
	}

	if err := s.recalculateBudget(ctx, tripID); err != nil {
		return nil, err
	}
	s.log.Info().Str("trip_id", tripID).Int("days", len(dates)).Msg("itinerary built")
	return s.store.Trips().GetAggregate(ctx, tripID)
}

// recalculateBudget rebuilds the trip budget from the current itinerary plus
// the preference-level category estimates.
func (s *TripService) recalculateBudget(ctx context.Context, tripID string) error {
	trip, err := s.store.Trips().Get(ctx, tripID)
	if err != nil {
		return err
	}
	days, err := s.store.Itineraries().ListDays(ctx, tripID)
	if err != nil {
		return err
	}
	var activities, stays float64
	for _, d := range days {
		for _, a := range d.Activities {
			activities += a.Cost
		}
		if d.Accommodation != nil {
			stays += d.Accommodation.Cost
		}
	}
	prefs := trip.Preferences
	breakdown := map[string]float64{
		categoryActivities:     activities,
		categoryAccommodations: stays,
		categoryTransportation: prefs.TransportationBudget,
		categoryFood:           prefs.FoodBudget,
		categoryMiscellaneous:  prefs.MiscBudget,
	}
	var total float64
	for _, v := range breakdown {
		total += v
	}
	var spent float64
	if existing, err := s.store.Budgets().GetByTrip(ctx, tripID); err == nil {
		spent = existing.Spent
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	_, err = s.store.Budgets().Put(ctx, &model.Budget{
		TripID:    tripID,
		Total:     total,
		Spent:     spent,
		Currency:  prefs.Currency,
		Breakdown: breakdown,
	})
	return err
}

// matchPreferences filters suggestions against the traveler profile: price
// cap, allowed activity types, and the family-friendly and accessibility
// requirements when those are set.
func matchPreferences(in []external.ActivitySuggestion, prefs model.Preferences) []external.ActivitySuggestion {
	out := make([]external.ActivitySuggestion, 0, len(in))
	for _, c := range in {
		if prefs.MaxActivityPrice > 0 && c.Price > prefs.MaxActivityPrice {
			continue
		}
		if len(prefs.ActivityTypes) > 0 && !containsFold(prefs.ActivityTypes, c.Type) {
			continue
		}
		if prefs.FamilyFriendly && !c.FamilyFriendly {
			continue
		}
		if prefs.Accessible && !c.Accessible {
			continue
		}
		out = append(out, c)
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func validatePreferences(p model.Preferences) error {
	switch p.HotelBudget {
	case model.TierBudget, model.TierModerate, model.TierLuxury:
	default:
		return errors.Wrapf(model.ErrValidation, "unknown hotel_budget %q", p.HotelBudget)
	}
	if p.Adults < 0 || p.Children < 0 {
		return errors.Wrap(model.ErrValidation, "traveler counts must not be negative")
	}
	for name, v := range map[string]float64{
		"max_activity_price":    p.MaxActivityPrice,
		"transportation_budget": p.TransportationBudget,
		"food_budget":           p.FoodBudget,
		"misc_budget":           p.MiscBudget,
	} {
		if v < 0 {
			return errors.Wrapf(model.ErrValidation, "%s must not be negative", name)
		}
	}
	return nil
}

func budgetFromPreferences(tripID string, p model.Preferences) *model.Budget {
	breakdown := map[string]float64{
		categoryActivities:     0,
		categoryAccommodations: 0,
		categoryTransportation: p.TransportationBudget,
		categoryFood:           p.FoodBudget,
		categoryMiscellaneous:  p.MiscBudget,
	}
	var total float64
	for _, v := range breakdown {
		total += v
	}
	return &model.Budget{
		TripID:    tripID,
		Total:     total,
		Currency:  p.Currency,
		Breakdown: breakdown,
	}
}

// tripDates expands the inclusive date range into one entry per day at UTC
// midnight.
func tripDates(start, end time.Time) []time.Time {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func withinTrip(date, start, end time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(start)) && !d.After(dateOnly(end))
}

func sameDate(t, date time.Time) bool {
	return dateOnly(t).Equal(dateOnly(date))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sortDocs keeps document listings stable by type.
func sortDocs(docs []*model.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Type < docs[j].Type })
}

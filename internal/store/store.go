package store

import (
	"context"
	"time"

	"github.com/voyago/trip-planner/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
// Adapters translate driver-level "no rows" conditions into model.ErrNotFound
// so callers never see sql.ErrNoRows.
type Store interface {
	Trips() Trips
	Itineraries() Itineraries
	Budgets() Budgets
	Documents() Documents
	Monitoring() Monitoring
}

type Trips interface {
	// Create assigns the trip id and timestamps and persists the row.
	Create(ctx context.Context, t *model.Trip) (*model.Trip, error)
	// Get returns the bare trip row without children.
	Get(ctx context.Context, tripID string) (*model.Trip, error)
	// GetAggregate returns the trip with itinerary days, activities,
	// accommodations and budget populated.
	GetAggregate(ctx context.Context, tripID string) (*model.Trip, error)
	// List returns one page ordered by creation time then id, plus the
	// total count matching the filter.
	List(ctx context.Context, req model.ListTripsRequest) ([]*model.Trip, int, error)
	// Update persists the mutable trip columns and bumps updated_at.
	Update(ctx context.Context, t *model.Trip) (*model.Trip, error)
	// Delete removes the trip and all owned children.
	Delete(ctx context.Context, tripID string) error
}

type Itineraries interface {
	AddDay(ctx context.Context, d *model.ItineraryDay) (*model.ItineraryDay, error)
	GetDay(ctx context.Context, dayID string) (*model.ItineraryDay, error)
	// ListDays returns the trip's days ordered by date, with activities
	// (ordered by start time) and accommodation populated.
	ListDays(ctx context.Context, tripID string) ([]*model.ItineraryDay, error)
	AddActivity(ctx context.Context, a *model.Activity) (*model.Activity, error)
	// SetAccommodation upserts the single accommodation for a day.
	SetAccommodation(ctx context.Context, a *model.Accommodation) (*model.Accommodation, error)
	// DeleteByTrip clears all days (and their children) for an itinerary rebuild.
	DeleteByTrip(ctx context.Context, tripID string) error
}

type Budgets interface {
	// Put upserts the one-to-one budget for a trip.
	Put(ctx context.Context, b *model.Budget) (*model.Budget, error)
	GetByTrip(ctx context.Context, tripID string) (*model.Budget, error)
}

type Documents interface {
	// Put upserts rendered-document metadata keyed by (trip, type).
	Put(ctx context.Context, d *model.Document) (*model.Document, error)
	ListByTrip(ctx context.Context, tripID string) ([]*model.Document, error)
	GetByType(ctx context.Context, tripID string, typ model.DocumentType) (*model.Document, error)
}

type Monitoring interface {
	AppendWeather(ctx context.Context, w *model.WeatherUpdate) error
	AppendAlert(ctx context.Context, a *model.TravelAlert) error
	// ListWeather and ListAlerts return records at or after since, in
	// chronological order.
	ListWeather(ctx context.Context, tripID string, since time.Time) ([]*model.WeatherUpdate, error)
	ListAlerts(ctx context.Context, tripID string, since time.Time) ([]*model.TravelAlert, error)
}

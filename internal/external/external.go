// Package external holds the HTTP clients for the outside collaborators:
// the weather feed, the travel-alert feed, and the planning assistant.
// All calls are bounded by a per-request timeout and a retry budget;
// exhausting the budget surfaces model.ErrUpstream to the caller.
package external

import (
	"context"

	"github.com/voyago/trip-planner/internal/model"
)

// WeatherSource reports current conditions for a destination.
type WeatherSource interface {
	CurrentWeather(ctx context.Context, destination string) (*model.WeatherUpdate, error)
}

// AlertSource reports active travel advisories for a destination.
type AlertSource interface {
	ActiveAlerts(ctx context.Context, destination string) ([]*model.TravelAlert, error)
}

// ActivitySuggestion is one candidate itinerary activity from the assistant.
type ActivitySuggestion struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	Location        string                 `json:"location,omitempty"`
	Type            string                 `json:"type,omitempty"`
	Price           float64                `json:"price"`
	DurationMinutes int                    `json:"duration,omitempty"`
	FamilyFriendly  bool                   `json:"family_friendly"`
	Accessible      bool                   `json:"accessible"`
	Booking         map[string]interface{} `json:"booking,omitempty"`
}

// StaySuggestion is a candidate accommodation from the assistant.
type StaySuggestion struct {
	Name    string                 `json:"name"`
	Address string                 `json:"address"`
	Price   float64                `json:"price"`
	Booking map[string]interface{} `json:"booking,omitempty"`
}

// Suggestions is the assistant's research result for a trip.
type Suggestions struct {
	Activities []ActivitySuggestion `json:"activities"`
	Stay       *StaySuggestion      `json:"stay,omitempty"`
}

// PlanningAssistant researches a destination for itinerary building.
// The assistant is best-effort: callers fall back to empty suggestions
// when it fails, they never own its lifecycle.
type PlanningAssistant interface {
	Research(ctx context.Context, trip *model.Trip) (*Suggestions, error)
}

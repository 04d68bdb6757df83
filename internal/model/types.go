package model

import "time"

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	StatusDraft      TripStatus = "draft"
	StatusPlanning   TripStatus = "planning"
	StatusPlanned    TripStatus = "planned"
	StatusConfirmed  TripStatus = "confirmed"
	StatusInProgress TripStatus = "in_progress"
	StatusCompleted  TripStatus = "completed"
	StatusCancelled  TripStatus = "cancelled"
)

// Valid reports whether s is a known lifecycle state.
func (s TripStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPlanning, StatusPlanned, StatusConfirmed,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Hotel budget tiers accepted in preferences.
const (
	TierBudget   = "BUDGET"
	TierModerate = "MODERATE"
	TierLuxury   = "LUXURY"
)

// Preferences captures the traveler profile used for planning and budgeting.
type Preferences struct {
	Adults               int      `json:"adults"`
	Children             int      `json:"children"`
	HotelBudget          string   `json:"hotel_budget"`
	ActivityTypes        []string `json:"activity_types,omitempty"`
	FamilyFriendly       bool     `json:"family_friendly"`
	Accessible           bool     `json:"accessible"`
	MaxActivityPrice     float64  `json:"max_activity_price,omitempty"`
	TransportationBudget float64  `json:"transportation_budget,omitempty"`
	FoodBudget           float64  `json:"food_budget,omitempty"`
	MiscBudget           float64  `json:"misc_budget,omitempty"`
	Currency             string   `json:"currency"`
}

// DefaultPreferences returns the preferences applied when a trip is created
// without an explicit profile.
func DefaultPreferences() Preferences {
	return Preferences{
		Adults:         2,
		HotelBudget:    TierModerate,
		FamilyFriendly: true,
		Currency:       "USD",
	}
}

// PreferencesPatch carries a partial preferences update; nil fields are left
// untouched by Merge.
type PreferencesPatch struct {
	Adults               *int      `json:"adults,omitempty"`
	Children             *int      `json:"children,omitempty"`
	HotelBudget          *string   `json:"hotel_budget,omitempty"`
	ActivityTypes        *[]string `json:"activity_types,omitempty"`
	FamilyFriendly       *bool     `json:"family_friendly,omitempty"`
	Accessible           *bool     `json:"accessible,omitempty"`
	MaxActivityPrice     *float64  `json:"max_activity_price,omitempty"`
	TransportationBudget *float64  `json:"transportation_budget,omitempty"`
	FoodBudget           *float64  `json:"food_budget,omitempty"`
	MiscBudget           *float64  `json:"misc_budget,omitempty"`
	Currency             *string   `json:"currency,omitempty"`
}

// Merge applies the non-nil fields of the patch onto p.
func (p Preferences) Merge(patch *PreferencesPatch) Preferences {
	if patch == nil {
		return p
	}
	if patch.Adults != nil {
		p.Adults = *patch.Adults
	}
	if patch.Children != nil {
		p.Children = *patch.Children
	}
	if patch.HotelBudget != nil {
		p.HotelBudget = *patch.HotelBudget
	}
	if patch.ActivityTypes != nil {
		p.ActivityTypes = *patch.ActivityTypes
	}
	if patch.FamilyFriendly != nil {
		p.FamilyFriendly = *patch.FamilyFriendly
	}
	if patch.Accessible != nil {
		p.Accessible = *patch.Accessible
	}
	if patch.MaxActivityPrice != nil {
		p.MaxActivityPrice = *patch.MaxActivityPrice
	}
	if patch.TransportationBudget != nil {
		p.TransportationBudget = *patch.TransportationBudget
	}
	if patch.FoodBudget != nil {
		p.FoodBudget = *patch.FoodBudget
	}
	if patch.MiscBudget != nil {
		p.MiscBudget = *patch.MiscBudget
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	return p
}

// Trip is the root aggregate; it owns itinerary days and a budget.
type Trip struct {
	TripID        string          `json:"id"`
	Title         string          `json:"title"`
	Description   *string         `json:"description,omitempty"`
	Destination   string          `json:"destination"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	Status        TripStatus      `json:"status"`
	Preferences   Preferences     `json:"preferences"`
	ItineraryDays []*ItineraryDay `json:"itinerary_days"`
	Budget        *Budget         `json:"budget,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ItineraryDay is a single dated day of the trip, ordered by date.
type ItineraryDay struct {
	DayID         string         `json:"id"`
	TripID        string         `json:"trip_id"`
	Date          time.Time      `json:"date"`
	Notes         string         `json:"notes,omitempty"`
	Activities    []*Activity    `json:"activities"`
	Accommodation *Accommodation `json:"accommodation,omitempty"`
}

// Activity is a scheduled item within an itinerary day.
type Activity struct {
	ActivityID  string                 `json:"id"`
	DayID       string                 `json:"day_id"`
	Name        string                 `json:"name"`
	Description *string                `json:"description,omitempty"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Location    *string                `json:"location,omitempty"`
	Cost        float64                `json:"cost"`
	BookingInfo map[string]interface{} `json:"booking_info,omitempty"`
}

// Accommodation is the overnight stay attached to an itinerary day.
type Accommodation struct {
	AccommodationID string                 `json:"id"`
	DayID           string                 `json:"day_id"`
	Name            string                 `json:"name"`
	Address         string                 `json:"address"`
	CheckIn         time.Time              `json:"check_in"`
	CheckOut        time.Time              `json:"check_out"`
	Cost            float64                `json:"cost"`
	BookingInfo     map[string]interface{} `json:"booking_info,omitempty"`
}

// Budget is the one-to-one cost summary for a trip. Spent exceeding Total is
// tolerated, and the breakdown is informational; neither is enforced against
// the other.
type Budget struct {
	BudgetID  string             `json:"id"`
	TripID    string             `json:"trip_id"`
	Total     float64            `json:"total"`
	Spent     float64            `json:"spent"`
	Currency  string             `json:"currency"`
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}

// DocumentType identifies one of the renderable trip documents.
type DocumentType string

const (
	DocItinerary DocumentType = "itinerary"
	DocGuide     DocumentType = "guide"
	DocEmergency DocumentType = "emergency"
	DocChecklist DocumentType = "checklist"
)

// Valid reports whether t names a renderable document.
func (t DocumentType) Valid() bool {
	switch t {
	case DocItinerary, DocGuide, DocEmergency, DocChecklist:
		return true
	}
	return false
}

// Document is rendered-output metadata; the content lives on disk at Path.
type Document struct {
	TripID      string       `json:"trip_id"`
	Type        DocumentType `json:"type"`
	Path        string       `json:"path"`
	LastUpdated time.Time    `json:"last_updated"`
}

// AlertSeverity grades a travel alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// WeatherUpdate is one point in the per-trip weather time series.
type WeatherUpdate struct {
	TripID       string    `json:"trip_id"`
	TemperatureC float64   `json:"temperature_c"`
	Conditions   string    `json:"conditions"`
	Timestamp    time.Time `json:"timestamp"`
}

// TravelAlert is one advisory in the per-trip alert time series.
type TravelAlert struct {
	TripID    string        `json:"trip_id"`
	AlertType string        `json:"alert_type"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`
}

// MonitorType selects which external feeds the poller collects for a trip.
type MonitorType string

const (
	MonitorWeather MonitorType = "weather"
	MonitorAlerts  MonitorType = "travel-alerts"
)

// ListTripsRequest captures pagination and the optional status filter.
// Page is 1-indexed.
type ListTripsRequest struct {
	Page     int
	PageSize int
	Status   *TripStatus
}

// TripPage is one page of trips plus the filtered total.
type TripPage struct {
	Trips    []*Trip `json:"trips"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// TripUpdate carries a partial trip update; nil fields are left untouched.
type TripUpdate struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Destination *string           `json:"destination,omitempty"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
	EndDate     *time.Time        `json:"end_date,omitempty"`
	Status      *TripStatus       `json:"status,omitempty"`
	Preferences *PreferencesPatch `json:"preferences,omitempty"`
}

package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/monitor"
	"github.com/voyago/trip-planner/internal/store"
)

// MonitoringService gates registration of trips with the background poller
// and reads back the accumulated update series.
type MonitoringService struct {
	store    store.Store
	registry *monitor.Registry
	log      zerolog.Logger
}

func NewMonitoringService(st store.Store, reg *monitor.Registry, log zerolog.Logger) *MonitoringService {
	return &MonitoringService{
		store:    st,
		registry: reg,
		log:      log.With().Str("component", "monitoring-service").Logger(),
	}
}

// MonitoringStatus reports a trip's registration state.
type MonitoringStatus struct {
	TripID    string              `json:"trip_id"`
	Active    bool                `json:"active"`
	Types     []model.MonitorType `json:"types,omitempty"`
	StartedAt *time.Time          `json:"started_at,omitempty"`
}

// MonitoringUpdates is the accumulated series since monitoring started.
type MonitoringUpdates struct {
	TripID  string                 `json:"trip_id"`
	Weather []*model.WeatherUpdate `json:"weather_updates"`
	Alerts  []*model.TravelAlert   `json:"travel_alerts"`
}

// StartMonitoring registers the trip for the given feed types. Only trips
// currently in progress may be monitored; empty types selects both feeds.
// Starting an already monitored trip merges the types.
func (s *MonitoringService) StartMonitoring(ctx context.Context, tripID string, types []model.MonitorType) (*MonitoringStatus, error) {
	trip, err := s.store.Trips().Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != model.StatusInProgress {
		return nil, errors.Wrapf(model.ErrInvalidState,
			"trip %s is %s, only in_progress trips can be monitored", tripID, trip.Status)
	}
	if len(types) == 0 {
		types = []model.MonitorType{model.MonitorWeather, model.MonitorAlerts}
	}
	for _, t := range types {
		if t != model.MonitorWeather && t != model.MonitorAlerts {
			return nil, errors.Wrapf(model.ErrValidation, "unknown monitor type %q", t)
		}
	}
	reg := s.registry.Register(tripID, types)
	s.log.Info().Str("trip_id", tripID).Msg("monitoring started")
	return statusFrom(reg), nil
}

// StopMonitoring deregisters the trip. Stopping an unmonitored trip succeeds;
// only a missing trip is an error. Accumulated updates stay in the store.
func (s *MonitoringService) StopMonitoring(ctx context.Context, tripID string) error {
	if _, err := s.store.Trips().Get(ctx, tripID); err != nil {
		return err
	}
	s.registry.Deregister(tripID)
	s.log.Info().Str("trip_id", tripID).Msg("monitoring stopped")
	return nil
}

// MonitoringStatus reports whether the trip is currently registered.
func (s *MonitoringService) MonitoringStatus(ctx context.Context, tripID string) (*MonitoringStatus, error) {
	if _, err := s.store.Trips().Get(ctx, tripID); err != nil {
		return nil, err
	}
	reg := s.registry.Get(tripID)
	if reg == nil {
		return &MonitoringStatus{TripID: tripID, Active: false}, nil
	}
	return statusFrom(reg), nil
}

// GetMonitoringUpdates returns the series collected since monitoring started,
// both in chronological order. For a trip that is not currently monitored the
// whole persisted history is returned.
func (s *MonitoringService) GetMonitoringUpdates(ctx context.Context, tripID string) (*MonitoringUpdates, error) {
	if _, err := s.store.Trips().Get(ctx, tripID); err != nil {
		return nil, err
	}
	var since time.Time
	if reg := s.registry.Get(tripID); reg != nil {
		since = reg.StartedAt
	}
	weather, err := s.store.Monitoring().ListWeather(ctx, tripID, since)
	if err != nil {
		return nil, err
	}
	alerts, err := s.store.Monitoring().ListAlerts(ctx, tripID, since)
	if err != nil {
		return nil, err
	}
	if weather == nil {
		weather = []*model.WeatherUpdate{}
	}
	if alerts == nil {
		alerts = []*model.TravelAlert{}
	}
	return &MonitoringUpdates{TripID: tripID, Weather: weather, Alerts: alerts}, nil
}

func statusFrom(reg *monitor.Registration) *MonitoringStatus {
	types := make([]model.MonitorType, 0, len(reg.Types))
	if reg.Types[model.MonitorWeather] {
		types = append(types, model.MonitorWeather)
	}
	if reg.Types[model.MonitorAlerts] {
		types = append(types, model.MonitorAlerts)
	}
	started := reg.StartedAt
	return &MonitoringStatus{
		TripID:    reg.TripID,
		Active:    true,
		Types:     types,
		StartedAt: &started,
	}
}

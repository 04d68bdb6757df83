package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/voyago/trip-planner/internal/external"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/store"
)

// Poller periodically collects weather and travel-alert updates for every
// registered trip and appends them to the store. A fetch failure for one trip
// is logged and never stops the loop or drops the registration.
type Poller struct {
	store    store.Store
	weather  external.WeatherSource
	alerts   external.AlertSource
	registry *Registry
	interval time.Duration
	log      zerolog.Logger
}

func NewPoller(st store.Store, w external.WeatherSource, a external.AlertSource, reg *Registry, interval time.Duration, log zerolog.Logger) *Poller {
	return &Poller{
		store:    st,
		weather:  w,
		alerts:   a,
		registry: reg,
		interval: interval,
		log:      log.With().Str("component", "monitor-poller").Logger(),
	}
}

// Run blocks until ctx is cancelled, collecting updates every interval.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.log.Info().Dur("interval", p.interval).Msg("monitor poller started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("monitor poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Collect(ctx)
		}
	}
}

// Collect performs a single collection pass over all registrations.
func (p *Poller) Collect(ctx context.Context) {
	for _, reg := range p.registry.Active() {
		trip, err := p.store.Trips().Get(ctx, reg.TripID)
		if err != nil {
			p.log.Warn().Err(err).Str("trip_id", reg.TripID).Msg("monitored trip lookup failed")
			continue
		}
		if reg.Types[model.MonitorWeather] {
			p.collectWeather(ctx, trip)
		}
		if reg.Types[model.MonitorAlerts] {
			p.collectAlerts(ctx, trip)
		}
	}
}

func (p *Poller) collectWeather(ctx context.Context, trip *model.Trip) {
	upd, err := p.weather.CurrentWeather(ctx, trip.Destination)
	if err != nil {
		p.log.Warn().Err(err).Str("trip_id", trip.TripID).Msg("weather fetch failed")
		return
	}
	upd.TripID = trip.TripID
	if err := p.store.Monitoring().AppendWeather(ctx, upd); err != nil {
		p.log.Error().Err(err).Str("trip_id", trip.TripID).Msg("weather append failed")
	}
}

func (p *Poller) collectAlerts(ctx context.Context, trip *model.Trip) {
	alerts, err := p.alerts.ActiveAlerts(ctx, trip.Destination)
	if err != nil {
		p.log.Warn().Err(err).Str("trip_id", trip.TripID).Msg("alert fetch failed")
		return
	}
	for _, al := range alerts {
		al.TripID = trip.TripID
		if err := p.store.Monitoring().AppendAlert(ctx, al); err != nil {
			p.log.Error().Err(err).Str("trip_id", trip.TripID).Msg("alert append failed")
		}
	}
}

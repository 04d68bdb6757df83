package tripservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/voyago/trip-planner/internal/api"
	"github.com/voyago/trip-planner/internal/cache"
	"github.com/voyago/trip-planner/internal/config"
	"github.com/voyago/trip-planner/internal/docs"
	"github.com/voyago/trip-planner/internal/external"
	"github.com/voyago/trip-planner/internal/health"
	"github.com/voyago/trip-planner/internal/logger"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/monitor"
	"github.com/voyago/trip-planner/internal/services"
	"github.com/voyago/trip-planner/internal/store"
	"github.com/voyago/trip-planner/internal/store/postgres"
	"github.com/voyago/trip-planner/internal/store/sqlite"
)

// Run starts the trip planner HTTP service and blocks until shutdown or error.
func Run() error {
	log := logger.New("trip-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("redis_addr", cfg.RedisAddr).
		Str("weather_api_url", cfg.WeatherAPIURL).
		Msg("Trip service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	st, pinger, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Store adapter unavailable")
		return err
	}

	respCache := cache.New(cfg.RedisAddr, cfg.CacheTTL(), log)

	renderer, err := docs.NewRenderer()
	if err != nil {
		log.Error().Err(err).Msg("Document templates unavailable")
		return err
	}

	weather, alerts, assistant := newExternalClients(cfg)

	registry := monitor.NewRegistry()
	poller := monitor.NewPoller(st, weather, alerts, registry, cfg.MonitorInterval(), log)
	go func() { _ = poller.Run(ctx) }()

	svcHealth := startHealthCheckers(ctx, cfg, log, pinger, respCache)

	router := api.NewRouter(api.Deps{
		Trips:       services.NewTripService(st, assistant, log),
		Documents:   services.NewDocumentService(st, renderer, cfg.DocumentDir, log),
		Monitoring:  services.NewMonitoringService(st, registry, log),
		Cache:       respCache,
		StorePinger: pinger,
		IsHealthy:   svcHealth.IsHealthy,
	})

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newStore opens the configured storage backend. Postgres gets its schema
// from goose migrations at startup; sqlite applies its schema on open.
func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, health.HealthPinger, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Bootstrap(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		st := postgres.NewWithDB(db)
		log.Info().Msg("postgres store ready")
		return st, st.(health.HealthPinger), nil
	case "sqlite":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, st.(health.HealthPinger), nil
	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// newExternalClients builds the outbound collaborators. Unconfigured
// endpoints yield nil collaborators; callers treat those as absent.
func newExternalClients(cfg *config.Config) (external.WeatherSource, external.AlertSource, external.PlanningAssistant) {
	var weather external.WeatherSource
	if cfg.WeatherAPIKey != "" {
		weather = external.NewWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey, cfg.RequestTimeout(), cfg.MaxRetries)
	} else {
		weather = noWeather{}
	}
	var alerts external.AlertSource
	if cfg.AlertsAPIURL != "" {
		alerts = external.NewAlertClient(cfg.AlertsAPIURL, cfg.RequestTimeout(), cfg.MaxRetries)
	} else {
		alerts = noAlerts{}
	}
	var assistant external.PlanningAssistant
	if cfg.PlannerURL != "" {
		assistant = external.NewPlannerClient(cfg.PlannerURL, cfg.RequestTimeout())
	}
	return weather, alerts, assistant
}

var errWeatherUnconfigured = errors.New("weather api key not configured")

// noWeather and noAlerts stand in when no upstream is configured; the
// poller logs the weather gap and collects nothing.
type noWeather struct{}

func (noWeather) CurrentWeather(context.Context, string) (*model.WeatherUpdate, error) {
	return nil, errWeatherUnconfigured
}

type noAlerts struct{}

func (noAlerts) ActiveAlerts(context.Context, string) ([]*model.TravelAlert, error) {
	return nil, nil
}

func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st health.HealthPinger, c *cache.Cache) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := health.NewPingChecker("store", st, probeTimeout, log)
	go storeChecker.Start(ctx, interval)

	cacheChecker := health.NewPingChecker("cache", c, probeTimeout, log)
	go cacheChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker, cacheChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

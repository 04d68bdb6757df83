package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the trip planner service.
// Environment variables are parsed from the TRIP_PLANNER_ prefix,
// e.g. TRIP_PLANNER_HTTP_PORT, TRIP_PLANNER_POSTGRES_DSN.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage Configuration
	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Cache Configuration
	RedisAddr       string `envconfig:"REDIS_ADDR" default:""`
	CacheTTLSeconds int    `envconfig:"CACHE_TTL_SECONDS" default:"3600"`

	// Monitoring Configuration
	MonitorIntervalSeconds int `envconfig:"MONITOR_INTERVAL_SECONDS" default:"30"`

	// External API Configuration
	WeatherAPIURL string `envconfig:"WEATHER_API_URL" default:"https://api.openweathermap.org"`
	WeatherAPIKey string `envconfig:"WEATHER_API_KEY" default:""`
	AlertsAPIURL  string `envconfig:"ALERTS_API_URL" default:""`
	PlannerURL    string `envconfig:"PLANNER_URL" default:""`

	// Retry / timeout tunables for external calls
	MaxRetries            int `envconfig:"MAX_RETRIES" default:"3"`
	RequestTimeoutSeconds int `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"10"`

	// Document Configuration
	DocumentDir string `envconfig:"DOCUMENT_DIR" default:"./documents"`

	// Health Configuration
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates the storage driver selection.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			c.SQLitePath = "./trip-planner.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.MonitorIntervalSeconds <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// New creates a Config by parsing TRIP_PLANNER_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("TRIP_PLANNER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// MonitorInterval returns the poller cadence as a duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSeconds) * time.Second
}

// RequestTimeout returns the external-call timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

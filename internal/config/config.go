package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ReferencePoint is the fixed coordinate the geofence is centered on
type ReferencePoint struct {
	Latitude  float64
	Longitude float64
}

// FeedConfig holds settings for the upstream BikePoint feed
type FeedConfig struct {
	URL     string
	Timeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string
}

// Config is the value object passed to each component at construction
type Config struct {
	Reference     ReferencePoint
	SearchRadiusM float64
	PollInterval  time.Duration
	BurstCycles   int
	MetricsAddr   string
	Feed          FeedConfig
	Database      DatabaseConfig
	Logging       LoggingConfig
}

// Defaults: Imperial College South Kensington, 800 m radius, one-minute
// polling, the public TfL BikePoint endpoint.
const (
	defaultRefLat       = 51.4988
	defaultRefLon       = -0.1749
	defaultRadiusM      = 800
	defaultPollInterval = 60 * time.Second
	defaultBurstCycles  = 5
	defaultFeedURL      = "https://api.tfl.gov.uk/BikePoint"
	defaultFeedTimeout  = 30 * time.Second
	defaultMetricsAddr  = ":9090"
)

// Load reads configuration from environment variables (optionally .env)
// and fills in compiled defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := &Config{
		Reference: ReferencePoint{
			Latitude:  defaultRefLat,
			Longitude: defaultRefLon,
		},
		SearchRadiusM: defaultRadiusM,
		PollInterval:  defaultPollInterval,
		BurstCycles:   defaultBurstCycles,
		MetricsAddr:   defaultMetricsAddr,
		Feed: FeedConfig{
			URL:     defaultFeedURL,
			Timeout: defaultFeedTimeout,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "commute",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	var err error

	if cfg.Reference.Latitude, err = floatEnv("REFERENCE_LAT", cfg.Reference.Latitude); err != nil {
		return nil, err
	}
	if cfg.Reference.Longitude, err = floatEnv("REFERENCE_LON", cfg.Reference.Longitude); err != nil {
		return nil, err
	}
	if cfg.SearchRadiusM, err = floatEnv("SEARCH_RADIUS_M", cfg.SearchRadiusM); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return nil, err
	}
	if cfg.BurstCycles, err = intEnv("BURST_CYCLES", cfg.BurstCycles); err != nil {
		return nil, err
	}

	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if cfg.Feed.Timeout, err = durationEnv("FEED_TIMEOUT", cfg.Feed.Timeout); err != nil {
		return nil, err
	}

	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if cfg.Database.Port, err = intEnv("DB_PORT", cfg.Database.Port); err != nil {
		return nil, err
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if cfg.Database.MaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns); err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns, err = intEnv("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded configuration for nonsense values
func (c *Config) Validate() error {
	if c.Reference.Latitude < -90 || c.Reference.Latitude > 90 {
		return fmt.Errorf("reference latitude out of range: %v", c.Reference.Latitude)
	}
	if c.Reference.Longitude < -180 || c.Reference.Longitude > 180 {
		return fmt.Errorf("reference longitude out of range: %v", c.Reference.Longitude)
	}
	if c.SearchRadiusM <= 0 {
		return fmt.Errorf("search radius must be positive: %v", c.SearchRadiusM)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %v", c.PollInterval)
	}
	if c.BurstCycles <= 0 {
		return fmt.Errorf("burst cycle count must be positive: %d", c.BurstCycles)
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed URL must not be empty")
	}
	return nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

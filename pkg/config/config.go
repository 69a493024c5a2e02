package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the complete plane-spotter configuration.
type Config struct {
	Aircraft     AircraftConfig     `json:"aircraft"`
	ADSB         ADSBConfig         `json:"adsb"`
	Tracker      TrackerConfig      `json:"tracker"`
	Airports     AirportsConfig     `json:"airports"`
	Notification NotificationConfig `json:"notification"`
	Database     DatabaseConfig     `json:"database"`
	Log          LogConfig          `json:"log"`
}

// AircraftConfig identifies the single aircraft tracked by this instance.
type AircraftConfig struct {
	// ICAOHex is the 24-bit ICAO address in hex (e.g., "a835af")
	ICAOHex string `json:"icao_hex"`

	// Registration is the tail number, used only in notification text
	Registration string `json:"registration,omitempty"`
}

// ADSBConfig contains ADS-B position provider configuration.
type ADSBConfig struct {
	// Sources is a list of configured providers; the first enabled one is used
	Sources []ADSBSource `json:"sources"`

	// Retry controls retries of a failed position fetch within one iteration
	Retry RetrySettings `json:"retry"`
}

// ADSBSource represents a single ADS-B position provider.
type ADSBSource struct {
	// Name is a friendly name for this source
	Name string `json:"name"`

	// Type is the source type: "airplanes.live" or "adsbexchange"
	Type string `json:"type"`

	// Enabled determines if this source should be used
	Enabled bool `json:"enabled"`

	// BaseURL is the API base URL
	BaseURL string `json:"base_url"`

	// APIKey is the RapidAPI key for adsbexchange
	APIKey string `json:"api_key,omitempty"`

	// APIHost is the RapidAPI host header for adsbexchange
	APIHost string `json:"api_host,omitempty"`

	// RateLimitSeconds is the minimum time between API calls in seconds
	// 0 = no rate limit
	RateLimitSeconds float64 `json:"rate_limit_seconds"`

	// TimeoutSeconds is the HTTP client timeout (default: 10)
	TimeoutSeconds int `json:"timeout_seconds"`
}

// RetrySettings mirrors adsb.RetryConfig in JSON friendly units.
type RetrySettings struct {
	MaxRetries     int     `json:"max_retries"`
	InitialDelayMs int     `json:"initial_delay_ms"`
	MaxDelayMs     int     `json:"max_delay_ms"`
	Multiplier     float64 `json:"multiplier"`
}

// TrackerConfig contains the tracking loop parameters.
type TrackerConfig struct {
	// SearchRadiusKm is the maximum distance to an airport for it to be
	// considered "near" the aircraft
	SearchRadiusKm float64 `json:"search_radius_km"`

	// PollIntervalSeconds is the sleep between iterations
	PollIntervalSeconds int `json:"poll_interval_seconds"`

	// Iterations bounds the loop; <= 0 runs until interrupted
	Iterations int `json:"iterations"`
}

// AirportsConfig locates the airport catalog.
type AirportsConfig struct {
	// Path is an ourairports style CSV file, optionally zstd compressed (.zst)
	Path string `json:"path"`
}

// NotificationConfig selects and configures the notification backend.
type NotificationConfig struct {
	// Driver is one of "log", "webhook" or "nats", or a comma separated
	// list of them to notify through several backends
	Driver string `json:"driver"`

	// Hashtags are appended to landing notifications
	Hashtags []string `json:"hashtags,omitempty"`

	Webhook WebhookConfig `json:"webhook"`
	NATS    NATSConfig    `json:"nats"`
}

// WebhookConfig configures the HTTP webhook notifier.
type WebhookConfig struct {
	URL            string  `json:"url"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	PerMinute      float64 `json:"per_minute"`
}

// NATSConfig configures the NATS notifier.
type NATSConfig struct {
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

// DatabaseConfig contains the event journal connection settings.
type DatabaseConfig struct {
	// Enabled turns the event journal on
	Enabled bool `json:"enabled"`

	// Driver is "postgres" or "sqlite"
	Driver string `json:"driver"`

	// Path is the sqlite database file
	Path string `json:"path,omitempty"`

	// Host is the database server hostname
	Host string `json:"host,omitempty"`

	// Port is the database server port
	Port int `json:"port,omitempty"`

	// Database is the database name
	Database string `json:"database,omitempty"`

	// Username for database authentication
	Username string `json:"username,omitempty"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password,omitempty"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode,omitempty"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`

	// RetentionDays prunes journal entries older than this at startup
	// 0 = keep everything
	RetentionDays int `json:"retention_days"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level"`

	// Dir is where the rotated log file is written; empty logs to stderr only
	Dir string `json:"dir,omitempty"`

	// Console mirrors log records to stderr when Dir is set
	Console bool `json:"console"`
}

// ConfigurationError is a fatal startup problem: a missing or invalid
// setting, or data that makes the process unable to do anything useful.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal over the defaults so omitted sections keep sane values.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
// The aircraft ICAO address has no default and must be provided.
func DefaultConfig() *Config {
	return &Config{
		ADSB: ADSBConfig{
			Sources: []ADSBSource{
				{
					Name:             "airplanes.live",
					Type:             "airplanes.live",
					Enabled:          true,
					BaseURL:          "https://api.airplanes.live/v2",
					RateLimitSeconds: 3.0,
					TimeoutSeconds:   10,
				},
			},
			Retry: RetrySettings{
				MaxRetries:     3,
				InitialDelayMs: 1000,
				MaxDelayMs:     60000,
				Multiplier:     2.0,
			},
		},
		Tracker: TrackerConfig{
			SearchRadiusKm:      1000,
			PollIntervalSeconds: 120,
			Iterations:          0,
		},
		Airports: AirportsConfig{
			Path: "data/airport-codes.csv",
		},
		Notification: NotificationConfig{
			Driver: "log",
			Webhook: WebhookConfig{
				TimeoutSeconds: 10,
				PerMinute:      6,
			},
			NATS: NATSConfig{
				URL:     "nats://127.0.0.1:4222",
				Subject: "planespotter.events",
			},
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Driver:       "sqlite",
			Path:         "plane-spotter.db",
			Host:         "localhost",
			Port:         5432,
			Database:     "planespotter",
			Username:     "planespotter",
			SSLMode:      "disable",
			MaxOpenConns:  4,
			MaxIdleConns:  2,
			RetentionDays: 365,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Validate checks that every required setting is present and coherent.
// All problems are reported at once, joined into a single ConfigurationError.
func (c *Config) Validate() error {
	var missing []string
	var invalid []string

	if strings.TrimSpace(c.Aircraft.ICAOHex) == "" {
		missing = append(missing, "aircraft.icao_hex")
	}
	if c.Airports.Path == "" {
		missing = append(missing, "airports.path")
	}
	if c.Tracker.SearchRadiusKm <= 0 {
		invalid = append(invalid, "tracker.search_radius_km must be positive")
	}
	if c.Tracker.PollIntervalSeconds < 0 {
		invalid = append(invalid, "tracker.poll_interval_seconds must not be negative")
	}

	if src, ok := c.ADSB.EnabledSource(); !ok {
		missing = append(missing, "adsb.sources (no enabled source)")
	} else {
		switch src.Type {
		case "airplanes.live":
			if src.BaseURL == "" {
				missing = append(missing, "adsb.sources.base_url")
			}
		case "adsbexchange":
			// base_url defaults to the RapidAPI host
			if src.APIKey == "" {
				missing = append(missing, "adsb.sources.api_key")
			}
		default:
			invalid = append(invalid, fmt.Sprintf("adsb source type %q not known", src.Type))
		}
	}

	drivers := c.Notification.Drivers()
	if len(drivers) == 0 {
		missing = append(missing, "notification.driver")
	}
	for _, driver := range drivers {
		switch driver {
		case "log":
		case "webhook":
			if c.Notification.Webhook.URL == "" {
				missing = append(missing, "notification.webhook.url")
			}
		case "nats":
			if c.Notification.NATS.URL == "" {
				missing = append(missing, "notification.nats.url")
			}
			if c.Notification.NATS.Subject == "" {
				missing = append(missing, "notification.nats.subject")
			}
		default:
			invalid = append(invalid, fmt.Sprintf("notification driver %q not known", driver))
		}
	}

	if c.Database.Enabled {
		if c.Database.RetentionDays < 0 {
			invalid = append(invalid, "database.retention_days must not be negative")
		}
		switch c.Database.Driver {
		case "sqlite":
			if c.Database.Path == "" {
				missing = append(missing, "database.path")
			}
		case "postgres":
			if c.Database.Host == "" {
				missing = append(missing, "database.host")
			}
			if c.Database.Database == "" {
				missing = append(missing, "database.database")
			}
		default:
			invalid = append(invalid, fmt.Sprintf("database driver %q not known", c.Database.Driver))
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var reasons []string
	if len(missing) > 0 {
		reasons = append(reasons, "missing keys: "+strings.Join(missing, ", "))
	}
	reasons = append(reasons, invalid...)
	return &ConfigurationError{Reason: strings.Join(reasons, "; ")}
}

// EnabledSource returns the first enabled ADS-B source.
func (cfg *ADSBConfig) EnabledSource() (ADSBSource, bool) {
	for _, src := range cfg.Sources {
		if src.Enabled {
			return src, true
		}
	}
	return ADSBSource{}, false
}

// Drivers splits the comma separated notification driver list.
func (cfg *NotificationConfig) Drivers() []string {
	var drivers []string
	for _, d := range strings.Split(cfg.Driver, ",") {
		if d = strings.TrimSpace(d); d != "" {
			drivers = append(drivers, d)
		}
	}
	return drivers
}

// PollInterval returns the loop sleep as a duration.
func (cfg *TrackerConfig) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalSeconds) * time.Second
}

// Retention returns the journal retention period; 0 keeps everything.
func (cfg *DatabaseConfig) Retention() time.Duration {
	if cfg.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(cfg.RetentionDays) * 24 * time.Hour
}

// RateLimit returns the minimum spacing between provider calls.
func (src ADSBSource) RateLimit() time.Duration {
	return time.Duration(src.RateLimitSeconds * float64(time.Second))
}

// Timeout returns the HTTP timeout for the source, defaulting to 10 seconds.
func (src ADSBSource) Timeout() time.Duration {
	if src.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(src.TimeoutSeconds) * time.Second
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows secrets like API keys and passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if icao := os.Getenv("PLANE_SPOTTER_ICAO"); icao != "" {
		c.Aircraft.ICAOHex = icao
	}
	if apiKey := os.Getenv("PLANE_SPOTTER_ADSB_API_KEY"); apiKey != "" {
		for i := range c.ADSB.Sources {
			c.ADSB.Sources[i].APIKey = apiKey
		}
	}
	if dbPassword := os.Getenv("PLANE_SPOTTER_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if natsURL := os.Getenv("PLANE_SPOTTER_NATS_URL"); natsURL != "" {
		c.Notification.NATS.URL = natsURL
	}
	if hook := os.Getenv("PLANE_SPOTTER_WEBHOOK_URL"); hook != "" {
		c.Notification.Webhook.URL = hook
	}
	if level := os.Getenv("PLANE_SPOTTER_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

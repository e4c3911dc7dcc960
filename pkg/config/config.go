package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Skill          SkillConfig          `mapstructure:"skill"`
	Debug          DebugConfig          `mapstructure:"debug"`
	Location       LocationConfig       `mapstructure:"location"`
	Stations       StationsConfig       `mapstructure:"stations"`
	BusinessSearch BusinessSearchConfig `mapstructure:"business_search"`
	Maps           MapsConfig           `mapstructure:"maps"`
	DeviceAddress  DeviceAddressConfig  `mapstructure:"device_address"`
	Selection      SelectionConfig      `mapstructure:"selection"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Events         EventsConfig         `mapstructure:"events"`
	NATS           NATSConfig           `mapstructure:"nats"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	RateLimiting   RateLimitingConfig   `mapstructure:"rate_limiting"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

// SkillConfig holds what the voice platform needs to trust an envelope.
type SkillConfig struct {
	SkillID            string        `mapstructure:"skill_id"`
	VerifyRequests     bool          `mapstructure:"verify_requests"`
	TimestampTolerance time.Duration `mapstructure:"timestamp_tolerance"`
	Permissions        []string      `mapstructure:"permissions"`
	DefaultCategory    string        `mapstructure:"default_category"`
}

// DebugConfig replaces location resolution with a fixed coordinate pair.
type DebugConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

type LocationConfig struct {
	AccuracyThreshold float64       `mapstructure:"accuracy_threshold"`
	MaxAge            time.Duration `mapstructure:"max_age"`
}

type StationsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Network string        `mapstructure:"network"`
	Pricing string        `mapstructure:"pricing"`
	Radius  float64       `mapstructure:"radius"`
	Limit   int           `mapstructure:"limit"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BusinessSearchConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	// Radius is sent to the search API in meters.
	Radius int `mapstructure:"radius"`
	// WalkThreshold drops results farther than this many miles from the station.
	WalkThreshold float64       `mapstructure:"walk_threshold"`
	Limit         int           `mapstructure:"limit"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type MapsConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	GeocodeURL    string        `mapstructure:"geocode_url"`
	DirectionsURL string        `mapstructure:"directions_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type DeviceAddressConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type SelectionConfig struct {
	Strategy string `mapstructure:"strategy"` // first, index, random
	Index    int    `mapstructure:"index"`
	Seed     int64  `mapstructure:"seed"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	MinRequests      uint32        `mapstructure:"min_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"` // local, redis
	GeocodeTTL      time.Duration `mapstructure:"geocode_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxEntries      int           `mapstructure:"max_entries"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type EventsConfig struct {
	Driver  string `mapstructure:"driver"` // none, nats, rabbitmq
	Subject string `mapstructure:"subject"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Path    string `mapstructure:"path"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	ServiceName string       `mapstructure:"service_name"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
}

type JaegerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type RateLimitingConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate"`
	Burst   int     `mapstructure:"burst"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 {
		errs = append(errs, fmt.Errorf("http.port must be positive, got %d", c.HTTP.Port))
	}
	if c.Stations.APIKey == "" {
		errs = append(errs, errors.New("stations.api_key is required"))
	}
	if c.BusinessSearch.APIKey == "" {
		errs = append(errs, errors.New("business_search.api_key is required"))
	}
	if c.Location.AccuracyThreshold <= 0 {
		errs = append(errs, errors.New("location.accuracy_threshold must be positive"))
	}
	if c.Location.MaxAge <= 0 {
		errs = append(errs, errors.New("location.max_age must be positive"))
	}

	switch c.Selection.Strategy {
	case "first", "index", "random":
	default:
		errs = append(errs, fmt.Errorf("selection.strategy %q is not one of first, index, random", c.Selection.Strategy))
	}

	switch c.Cache.Driver {
	case "local":
	case "redis":
		if c.Cache.Enabled && c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required when cache.driver is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver %q is not one of local, redis", c.Cache.Driver))
	}

	switch c.Events.Driver {
	case "none":
	case "nats":
		if c.NATS.URL == "" {
			errs = append(errs, errors.New("nats.url is required when events.driver is nats"))
		}
	case "rabbitmq":
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("rabbitmq.url is required when events.driver is rabbitmq"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.driver %q is not one of none, nats, rabbitmq", c.Events.Driver))
	}

	if c.Vault.Enabled && (c.Vault.Address == "" || c.Vault.Token == "") {
		errs = append(errs, errors.New("vault.address and vault.token are required when vault is enabled"))
	}

	return errors.Join(errs...)
}

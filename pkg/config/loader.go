package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flags registers the command-line flags understood by Load.
func Flags() *pflag.FlagSet {
	set := pflag.NewFlagSet("ev-station-skill", pflag.ContinueOnError)
	set.String("config", "", "path to a config file (overrides the search paths)")
	set.Int("port", 0, "HTTP port")
	set.Bool("debug", false, "resolve every request to the debug coordinates")
	set.String("log-level", "", "log level (debug, info, warn, error)")
	return set
}

// Load reads configuration from an optional .env file, the config file, the
// environment and the given flags, in increasing order of precedence.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Common env vars without the APP_ prefix for container deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("skill.skill_id", "SKILL_ID", "APP_SKILL_SKILL_ID")
	v.BindEnv("stations.api_key", "NREL_API_KEY", "APP_STATIONS_API_KEY")
	v.BindEnv("business_search.api_key", "YELP_API_KEY", "APP_BUSINESS_SEARCH_API_KEY")
	v.BindEnv("maps.api_key", "GOOGLE_MAPS_API_KEY", "APP_MAPS_API_KEY")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	v.BindEnv("rabbitmq.url", "RABBITMQ_URL", "APP_RABBITMQ_URL")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if flags != nil {
		if path, _ := flags.GetString("config"); path != "" {
			v.SetConfigFile(path)
		}
		bindFlag(v, flags, "http.port", "port")
		bindFlag(v, flags, "debug.enabled", "debug")
		bindFlag(v, flags, "logging.level", "log-level")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindFlag only lets a flag win when it was set explicitly, so flag zero
// values never shadow the file or the environment.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	if f := flags.Lookup(name); f != nil && f.Changed {
		v.BindPFlag(key, f)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ev-station-skill")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8100)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.body_limit", 256*1024)

	v.SetDefault("skill.verify_requests", true)
	v.SetDefault("skill.timestamp_tolerance", 150*time.Second)
	v.SetDefault("skill.permissions", []string{
		"read::alexa:device:all:address",
		"alexa::devices:all:geolocation:read",
	})
	v.SetDefault("skill.default_category", "stores")

	v.SetDefault("debug.enabled", false)

	v.SetDefault("location.accuracy_threshold", 100.0)
	v.SetDefault("location.max_age", 60*time.Second)

	v.SetDefault("stations.base_url", "https://developer.nrel.gov")
	v.SetDefault("stations.network", "ChargePoint Network")
	v.SetDefault("stations.pricing", "Free")
	v.SetDefault("stations.radius", 25.0)
	v.SetDefault("stations.limit", 25)
	v.SetDefault("stations.timeout", 10*time.Second)

	v.SetDefault("business_search.base_url", "https://api.yelp.com")
	v.SetDefault("business_search.radius", 800)
	v.SetDefault("business_search.walk_threshold", 0.3)
	v.SetDefault("business_search.limit", 20)
	v.SetDefault("business_search.timeout", 10*time.Second)

	v.SetDefault("maps.geocode_url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("maps.directions_url", "https://maps.googleapis.com/maps/api/directions/json")
	v.SetDefault("maps.timeout", 8*time.Second)

	v.SetDefault("device_address.timeout", 5*time.Second)

	v.SetDefault("selection.strategy", "first")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.min_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.driver", "local")
	v.SetDefault("cache.geocode_ttl", 24*time.Hour)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.max_entries", 10000)

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.subject", "skill.turns")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("rabbitmq.exchange", "ev-skill.events")

	v.SetDefault("vault.path", "secret/data/ev-skill")

	v.SetDefault("opentelemetry.enabled", false)
	v.SetDefault("opentelemetry.service_name", "ev-station-skill")
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://jaeger:14268/api/traces")

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.rate", 50.0)
	v.SetDefault("rate_limiting.burst", 100)

	v.SetDefault("cors.enabled", false)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/adapter/cache"
	"github.com/seu-repo/ev-station-skill/internal/adapter/external/google"
	"github.com/seu-repo/ev-station-skill/internal/adapter/external/nrel"
	"github.com/seu-repo/ev-station-skill/internal/adapter/external/yelp"
	"github.com/seu-repo/ev-station-skill/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/ev-station-skill/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/ev-station-skill/internal/adapter/queue"
	"github.com/seu-repo/ev-station-skill/internal/adapter/vault"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
	"github.com/seu-repo/ev-station-skill/internal/ports"
	"github.com/seu-repo/ev-station-skill/internal/service/health"
	"github.com/seu-repo/ev-station-skill/internal/service/location"
	"github.com/seu-repo/ev-station-skill/internal/service/skill"
	"github.com/seu-repo/ev-station-skill/internal/service/voice"
	"github.com/seu-repo/ev-station-skill/pkg/config"
)

func main() {
	// 1. Load Configuration
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal("Failed to parse flags:", err)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting EV station skill",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.Bool("debug", cfg.Debug.Enabled),
	)

	// 3. Load Secrets from Vault
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, logger)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = secrets.ApplySecrets(ctx, cfg)
		cancel()
		if err != nil {
			logger.Fatal("Failed to load secrets from Vault", zap.Error(err))
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize Upstream HTTP Clients
	stationsHTTP := circuitbreaker.NewHTTPClient("nrel", cfg.Stations.Timeout, cfg.CircuitBreaker, logger, telemetry.RecordBreakerState)
	placesHTTP := circuitbreaker.NewHTTPClient("yelp", cfg.BusinessSearch.Timeout, cfg.CircuitBreaker, logger, telemetry.RecordBreakerState)
	mapsHTTP := circuitbreaker.NewHTTPClient("google_maps", cfg.Maps.Timeout, cfg.CircuitBreaker, logger, telemetry.RecordBreakerState)
	addressHTTP := circuitbreaker.NewHTTPClient("device_address", cfg.DeviceAddress.Timeout, cfg.CircuitBreaker, logger, telemetry.RecordBreakerState)
	breakers := []health.Breaker{stationsHTTP, placesHTTP, mapsHTTP, addressHTTP}

	// 6. Initialize Geocode Cache
	var geoCache ports.Cache
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize cache", zap.Error(err))
		}
		defer c.Close()
		geoCache = c
	}

	// 7. Initialize Upstream Adapters
	stationFinder := nrel.NewClient(nrel.Config{
		BaseURL: cfg.Stations.BaseURL,
		APIKey:  cfg.Stations.APIKey,
	}, stationsHTTP, logger)

	placeFinder := yelp.NewClient(yelp.Config{
		BaseURL:            cfg.BusinessSearch.BaseURL,
		APIKey:             cfg.BusinessSearch.APIKey,
		RadiusMeters:       cfg.BusinessSearch.Radius,
		WalkThresholdMiles: cfg.BusinessSearch.WalkThreshold,
		Limit:              cfg.BusinessSearch.Limit,
	}, placesHTTP, logger)

	var geocoder ports.Geocoder
	var routes ports.RoutePlanner
	if cfg.Maps.APIKey != "" {
		geocoder = google.NewGeocoder(cfg.Maps.APIKey, cfg.Maps.GeocodeURL, mapsHTTP, geoCache, cfg.Cache.GeocodeTTL, logger)
		routes = google.NewDirections(cfg.Maps.APIKey, cfg.Maps.DirectionsURL, mapsHTTP, logger)
	} else {
		logger.Warn("maps.api_key not set, drive times and device address lookups are disabled")
	}

	addresses := alexa.NewDeviceAddressClient(addressHTTP, logger)

	// 8. Initialize Services (Business Logic Layer)
	resolver := location.NewResolver(addresses, geocoder, location.Config{
		AccuracyThreshold: cfg.Location.AccuracyThreshold,
		MaxAge:            cfg.Location.MaxAge,
		Debug:             cfg.Debug.Enabled,
		DebugLocation:     domain.Location{Latitude: cfg.Debug.Latitude, Longitude: cfg.Debug.Longitude},
	}, logger)

	selector, err := voice.NewSelector(cfg.Selection.Strategy, cfg.Selection.Index, cfg.Selection.Seed)
	if err != nil {
		logger.Fatal("Invalid selection strategy", zap.Error(err))
	}

	evSkill := skill.New(resolver, stationFinder, placeFinder, routes, selector, skill.Options{
		Filter: domain.StationFilter{
			Network:     cfg.Stations.Network,
			Pricing:     cfg.Stations.Pricing,
			RadiusMiles: cfg.Stations.Radius,
			Limit:       cfg.Stations.Limit,
		},
		Permissions:     cfg.Skill.Permissions,
		DefaultCategory: cfg.Skill.DefaultCategory,
		Debug:           cfg.Debug.Enabled,
	}, logger)

	// 9. Initialize Turn Event Publisher
	publisher, err := queue.NewPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer publisher.Close()

	// 10. Initialize Health Service
	healthService := health.NewService(&health.Config{
		Version:  cfg.App.Version,
		Cache:    geoCache,
		Events:   publisher,
		Breakers: breakers,
	}, logger)

	// 11. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(middleware.NewRequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
	}))
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	if cfg.RateLimiting.Enabled {
		app.Use(middleware.NewRateLimiter(cfg.RateLimiting, logger))
	}

	// Health Check Endpoints
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// Skill webhook
	var verifier handlers.Verifier
	if cfg.Skill.VerifyRequests {
		verifier = alexa.Verifier{SkillID: cfg.Skill.SkillID, Tolerance: cfg.Skill.TimestampTolerance}
	}
	handlers.NewSkillHandler(evSkill.Dispatcher(), verifier, publisher, cfg.Debug.Enabled, logger).RegisterRoutes(app)

	// 12. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 13. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zcfg.Build()
}

// Package location decides where the user is for a single turn.
//
// Sources are tried in order: debug coordinates, a fresh and accurate device
// geolocation sample, then the device's registered postal address geocoded to
// coordinates. Missing consent short-circuits everything.
package location

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
	"github.com/seu-repo/ev-station-skill/internal/ports"
)

type Outcome int

const (
	Resolved Outcome = iota
	NeedsPermission
	NeedsPrompt
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NeedsPermission:
		return "needs_permission"
	case NeedsPrompt:
		return "needs_prompt"
	default:
		return "unknown"
	}
}

// Resolution is the tagged result of Resolve. Location and Source are only
// meaningful when Outcome is Resolved.
type Resolution struct {
	Outcome  Outcome
	Location domain.Location
	Source   domain.LocationSource
}

type Config struct {
	// AccuracyThreshold rejects geolocation samples at or above this many meters.
	AccuracyThreshold float64
	// MaxAge rejects geolocation samples this old or older.
	MaxAge time.Duration

	Debug         bool
	DebugLocation domain.Location
}

type Resolver struct {
	addresses ports.AddressService
	geocoder  ports.Geocoder
	cfg       Config
	log       *zap.Logger
}

func NewResolver(addresses ports.AddressService, geocoder ports.Geocoder, cfg Config, log *zap.Logger) *Resolver {
	return &Resolver{
		addresses: addresses,
		geocoder:  geocoder,
		cfg:       cfg,
		log:       log,
	}
}

// Resolve returns an error only when an upstream call fails. The error wraps
// the upstream one, so *alexa.ServiceError still matches with errors.As.
func (r *Resolver) Resolve(ctx context.Context, env *alexa.RequestEnvelope) (res Resolution, err error) {
	defer func() {
		if err == nil {
			telemetry.LocationResolutionsTotal.WithLabelValues(res.Outcome.String(), string(res.Source)).Inc()
		}
	}()

	if env.ConsentToken() == "" {
		return Resolution{Outcome: NeedsPermission}, nil
	}

	if r.cfg.Debug {
		return resolved(r.cfg.DebugLocation, domain.LocationSourceDebug), nil
	}

	if loc, ok := r.fromGeolocation(env); ok {
		return resolved(loc, domain.LocationSourceGeolocation), nil
	}

	if r.geocoder == nil {
		r.log.Debug("No usable geolocation and no geocoder configured")
		return Resolution{Outcome: NeedsPrompt}, nil
	}

	r.log.Debug("No usable geolocation, checking device address")
	addr, err := r.addresses.GetAddress(ctx, env.DeviceContext())
	if err != nil {
		return Resolution{}, fmt.Errorf("device address lookup: %w", err)
	}
	if addr == nil || addr.IsEmpty() {
		r.log.Debug("Device has no registered address")
		return Resolution{Outcome: NeedsPrompt}, nil
	}

	loc, ok, err := r.geocoder.Geocode(ctx, addr.String())
	if err != nil {
		return Resolution{}, fmt.Errorf("geocode device address: %w", err)
	}
	if !ok {
		r.log.Debug("Device address did not geocode")
		return Resolution{Outcome: NeedsPrompt}, nil
	}
	return resolved(loc, domain.LocationSourceDeviceAddress), nil
}

func (r *Resolver) fromGeolocation(env *alexa.RequestEnvelope) (domain.Location, bool) {
	if !env.SupportsGeolocation() {
		return domain.Location{}, false
	}

	reading, ok, err := env.GeoReading()
	if !ok {
		return domain.Location{}, false
	}
	if err != nil {
		r.log.Debug("Rejecting geolocation sample", zap.Error(err))
		return domain.Location{}, false
	}

	requestTime, err := env.RequestTime()
	if err != nil {
		r.log.Debug("Rejecting geolocation sample", zap.Error(err))
		return domain.Location{}, false
	}

	// Samples stamped after the request are tolerated up to MaxAge of clock skew.
	age := requestTime.Sub(reading.CapturedAt)
	if age < -r.cfg.MaxAge || age >= r.cfg.MaxAge {
		r.log.Debug("Geolocation sample outside freshness window", zap.Duration("age", age))
		return domain.Location{}, false
	}

	if reading.AccuracyInMeters >= r.cfg.AccuracyThreshold {
		r.log.Debug("Geolocation sample too coarse or stale",
			zap.Float64("accuracy_m", reading.AccuracyInMeters),
			zap.Duration("age", age),
		)
		return domain.Location{}, false
	}
	return reading.Location, true
}

func resolved(loc domain.Location, source domain.LocationSource) Resolution {
	return Resolution{Outcome: Resolved, Location: loc, Source: source}
}

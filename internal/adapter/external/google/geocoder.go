package google

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
	"github.com/seu-repo/ev-station-skill/internal/ports"
	apperrors "github.com/seu-repo/ev-station-skill/pkg/errors"
)

const (
	geocodeService    = "google_geocode"
	DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocoder resolves addresses to coordinates. The cache is optional.
type Geocoder struct {
	http     Doer
	endpoint string
	apiKey   string
	cache    ports.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewGeocoder(apiKey, endpoint string, doer Doer, cache ports.Cache, cacheTTL time.Duration, log *zap.Logger) *Geocoder {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultGeocodeURL
	}
	if doer == nil {
		doer = &http.Client{Timeout: 8 * time.Second}
	}
	return &Geocoder{
		http:     doer,
		endpoint: endpoint,
		apiKey:   apiKey,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Geocode returns the first match for address. ok is false on zero results.
func (g *Geocoder) Geocode(ctx context.Context, address string) (loc domain.Location, ok bool, err error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return domain.Location{}, false, nil
	}

	cacheKey := "geocode:" + hashKey(strings.ToLower(trimmed))
	if loc, hit := g.lookup(ctx, cacheKey); hit {
		return loc, true, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "google.Geocode")
	defer span.End()
	defer telemetry.ObserveUpstream(geocodeService, time.Now(), &err)

	var resp geocodeResponse
	if err = getJSON(ctx, g.http, geocodeService, g.endpoint, g.apiKey, url.Values{"address": {trimmed}}, &resp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Location{}, false, err
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return domain.Location{}, false, nil
	default:
		err = apperrors.NewUpstreamError(geocodeService,
			fmt.Sprintf("status %s", resp.Status), errors.New(resp.ErrorMessage))
		span.SetStatus(codes.Error, err.Error())
		return domain.Location{}, false, err
	}
	if len(resp.Results) == 0 {
		return domain.Location{}, false, nil
	}

	result := resp.Results[0].Geometry.Location
	loc = domain.Location{Latitude: result.Lat, Longitude: result.Lng}
	g.store(ctx, cacheKey, loc)
	return loc, true, nil
}

func (g *Geocoder) lookup(ctx context.Context, key string) (domain.Location, bool) {
	if g.cache == nil {
		return domain.Location{}, false
	}
	cached, err := g.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			g.log.Warn("Geocode cache read failed", zap.Error(err))
		}
		telemetry.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return domain.Location{}, false
	}

	var loc domain.Location
	if err := json.Unmarshal([]byte(cached), &loc); err != nil || loc.IsZero() {
		telemetry.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return domain.Location{}, false
	}
	telemetry.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return loc, true
}

func (g *Geocoder) store(ctx context.Context, key string, loc domain.Location) {
	if g.cache == nil {
		return
	}
	payload, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, string(payload), g.cacheTTL); err != nil {
		g.log.Warn("Geocode cache write failed", zap.Error(err))
	}
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

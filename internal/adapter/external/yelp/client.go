// Package yelp searches the Yelp Fusion business directory.
package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
	apperrors "github.com/seu-repo/ev-station-skill/pkg/errors"
)

const (
	serviceName    = "yelp"
	searchPath     = "/v3/businesses/search"
	metersPerMile  = 1609.34
	maxRadiusMeter = 40000
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	// RadiusMeters bounds the search around the address.
	RadiusMeters int
	// WalkThresholdMiles drops results farther than a short walk.
	WalkThresholdMiles float64
	Limit              int
}

type searchResponse struct {
	Total      int        `json:"total"`
	Businesses []business `json:"businesses"`
}

type business struct {
	ID       string  `json:"id"`
	Alias    string  `json:"alias"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating"`
	Distance float64 `json:"distance"`
	Location struct {
		Address1 string `json:"address1"`
		City     string `json:"city"`
	} `json:"location"`
}

type Client struct {
	http Doer
	cfg  Config
	log  *zap.Logger
}

func NewClient(cfg Config, doer Doer, log *zap.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RadiusMeters > maxRadiusMeter {
		cfg.RadiusMeters = maxRadiusMeter
	}
	return &Client{http: doer, cfg: cfg, log: log}
}

// FindNearby returns businesses matching keyword within walking distance of
// address, in the order the search API ranked them.
func (c *Client) FindNearby(ctx context.Context, address, keyword string) (pois []domain.PointOfInterest, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "yelp.FindNearby")
	defer span.End()
	defer telemetry.ObserveUpstream(serviceName, time.Now(), &err)

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.NewValidationError("business search needs an address")
	}

	params := url.Values{}
	params.Set("location", address)
	if kw := strings.TrimSpace(keyword); kw != "" {
		params.Set("term", kw)
	}
	if c.cfg.RadiusMeters > 0 {
		params.Set("radius", strconv.Itoa(c.cfg.RadiusMeters))
	}
	if c.cfg.Limit > 0 {
		params.Set("limit", strconv.Itoa(c.cfg.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.NewUpstreamError(serviceName, "request failed", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = apperrors.NewUpstreamError(serviceName,
			fmt.Sprintf("unexpected status %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.NewDecodeError(serviceName, err)
	}

	pois = c.walkable(payload.Businesses)
	c.log.Debug("Business search completed",
		zap.String("term", keyword),
		zap.Int("total", payload.Total),
		zap.Int("walkable", len(pois)),
	)
	span.SetAttributes(attribute.Int("businesses.count", len(pois)))
	return pois, nil
}

// walkable keeps businesses inside the walk threshold that have a street address.
func (c *Client) walkable(businesses []business) []domain.PointOfInterest {
	limit := c.cfg.WalkThresholdMiles * metersPerMile
	pois := make([]domain.PointOfInterest, 0, len(businesses))
	for _, b := range businesses {
		addr := strings.TrimSpace(b.Location.Address1)
		if addr == "" {
			continue
		}
		if limit > 0 && b.Distance >= limit {
			continue
		}
		pois = append(pois, domain.PointOfInterest{
			Name:           b.Name,
			Rating:         b.Rating,
			DistanceMeters: b.Distance,
			Address:        addr,
		})
	}
	return pois
}

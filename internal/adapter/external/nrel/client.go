// Package nrel queries the NREL alternative fuel station directory.
package nrel

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
	serviceName  = "nrel"
	nearestPath  = "/api/alt-fuel-stations/v1/nearest.json"
	fuelTypeElec = "ELEC"
)

// Doer is satisfied by *http.Client and the circuit breaker client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the directory endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
}

type nearestResponse struct {
	TotalResults int              `json:"total_results"`
	Stations     []domain.Station `json:"fuel_stations"`
}

type Client struct {
	http    Doer
	baseURL string
	apiKey  string
	log     *zap.Logger
}

func NewClient(cfg Config, doer Doer, log *zap.Logger) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		log:     log,
	}
}

// FindStations issues a single nearest-stations request. An empty result is
// not an error.
func (c *Client) FindStations(ctx context.Context, query domain.StationQuery, filter domain.StationFilter) (stations []domain.Station, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "nrel.FindStations")
	defer span.End()
	defer telemetry.ObserveUpstream(serviceName, time.Now(), &err)

	params, err := c.params(query, filter)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+nearestPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
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

	var payload nearestResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, apperrors.NewDecodeError(serviceName, err)
	}

	c.log.Debug("Station directory search completed",
		zap.Int("total_results", payload.TotalResults),
		zap.Int("returned", len(payload.Stations)),
	)
	span.SetAttributes(attribute.Int("stations.count", len(payload.Stations)))
	return payload.Stations, nil
}

func (c *Client) params(query domain.StationQuery, filter domain.StationFilter) (url.Values, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("fuel_type", fuelTypeElec)

	switch {
	case strings.TrimSpace(query.Text) != "":
		params.Set("location", strings.TrimSpace(query.Text))
	case !query.Location.IsZero():
		params.Set("latitude", strconv.FormatFloat(query.Location.Latitude, 'f', -1, 64))
		params.Set("longitude", strconv.FormatFloat(query.Location.Longitude, 'f', -1, 64))
	default:
		return nil, apperrors.NewValidationError("station query needs coordinates or a location text")
	}

	if filter.Network != "" {
		params.Set("ev_network", filter.Network)
	}
	if filter.Pricing != "" {
		params.Set("ev_pricing", filter.Pricing)
	}
	if filter.RadiusMiles > 0 {
		params.Set("radius", strconv.FormatFloat(filter.RadiusMiles, 'f', -1, 64))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	return params, nil
}

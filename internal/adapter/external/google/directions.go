package google

import (
	"context"
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
	apperrors "github.com/seu-repo/ev-station-skill/pkg/errors"
)

const (
	directionsService    = "google_directions"
	DefaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"
)

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary string `json:"summary"`
		Legs    []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Directions estimates driving time between two points.
type Directions struct {
	http     Doer
	endpoint string
	apiKey   string
	log      *zap.Logger
}

func NewDirections(apiKey, endpoint string, doer Doer, log *zap.Logger) *Directions {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultDirectionsURL
	}
	if doer == nil {
		doer = &http.Client{Timeout: 8 * time.Second}
	}
	return &Directions{http: doer, endpoint: endpoint, apiKey: apiKey, log: log}
}

// Route returns the first driving route, summing its legs.
func (d *Directions) Route(ctx context.Context, from, to domain.Location) (route *domain.Route, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "google.Route")
	defer span.End()
	defer telemetry.ObserveUpstream(directionsService, time.Now(), &err)

	params := url.Values{
		"origin":      {from.String()},
		"destination": {to.String()},
		"mode":        {"driving"},
	}

	var resp directionsResponse
	if err = getJSON(ctx, d.http, directionsService, d.endpoint, d.apiKey, params, &resp); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults, statusNotFound:
		return nil, apperrors.NewNotFoundError(directionsService, "no route found")
	default:
		err = apperrors.NewUpstreamError(directionsService,
			fmt.Sprintf("status %s", resp.Status), errors.New(resp.ErrorMessage))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, apperrors.NewNotFoundError(directionsService, "no route found")
	}

	first := resp.Routes[0]
	route = &domain.Route{Summary: first.Summary}
	for _, leg := range first.Legs {
		route.DistanceMeters += leg.Distance.Value
		route.DurationSeconds += leg.Duration.Value
	}
	return route, nil
}

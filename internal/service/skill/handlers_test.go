package skill

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/mocks"
	"github.com/seu-repo/ev-station-skill/internal/service/location"
	"github.com/seu-repo/ev-station-skill/internal/service/voice"
)

var testPermissions = []string{"read::alexa:device:all:address", "alexa::devices:all:geolocation:read"}

type fixture struct {
	addresses *mocks.MockAddressService
	geocoder  *mocks.MockGeocoder
	stations  *mocks.MockStationFinder
	places    *mocks.MockPlaceFinder
	routes    *mocks.MockRoutePlanner
	skill     *Skill
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	f := &fixture{
		addresses: &mocks.MockAddressService{},
		geocoder:  &mocks.MockGeocoder{},
		stations: &mocks.MockStationFinder{
			FindStationsFunc: func(ctx context.Context, q domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error) {
				return []domain.Station{{
					Name:           "Denver Public Library",
					StreetAddress:  "10 W 14th Ave Pkwy",
					City:           "Denver",
					State:          "CO",
					Zip:            "80204",
					DistanceMiles:  0.5,
					Network:        "ChargePoint Network",
					Pricing:        "Free",
					AccessDaysTime: "24 hours daily",
				}}, nil
			},
		},
		places: &mocks.MockPlaceFinder{
			FindNearbyFunc: func(ctx context.Context, address, keyword string) ([]domain.PointOfInterest, error) {
				return []domain.PointOfInterest{{Name: "Joe's Diner", Rating: 4.5, DistanceMeters: 200, Address: "1400 Champa St"}}, nil
			},
		},
		routes: &mocks.MockRoutePlanner{},
	}

	resolver := location.NewResolver(f.addresses, f.geocoder, location.Config{
		AccuracyThreshold: 100,
		MaxAge:            60 * time.Second,
		Debug:             opts.Debug,
		DebugLocation:     domain.Location{Latitude: 40.01, Longitude: -105.27},
	}, zap.NewNop())

	if opts.Permissions == nil {
		opts.Permissions = testPermissions
	}
	f.skill = New(resolver, f.stations, f.places, f.routes, voice.FirstSelector{}, opts, zap.NewNop())
	return f
}

func getStationEnvelope() *alexa.RequestEnvelope {
	return &alexa.RequestEnvelope{
		Version: "1.0",
		Context: alexa.Context{
			System: alexa.System{
				User: alexa.User{Permissions: &alexa.Permissions{ConsentToken: "consent"}},
				Device: alexa.Device{
					DeviceID:            "device-1",
					SupportedInterfaces: map[string]map[string]interface{}{"Geolocation": {}},
				},
			},
			Geolocation: &alexa.Geolocation{
				Timestamp: "2026-03-01T12:00:00Z",
				Coordinate: &alexa.Coordinate{
					LatitudeInDegrees:  39.74,
					LongitudeInDegrees: -104.99,
					AccuracyInMeters:   20,
				},
			},
		},
		Request: alexa.Request{
			Type:      alexa.RequestTypeIntent,
			RequestID: "req-1",
			Timestamp: "2026-03-01T12:00:05Z",
			Intent:    &alexa.Intent{Name: IntentGetStation},
		},
	}
}

func TestGetStation_EndToEnd(t *testing.T) {
	f := newFixture(t, Options{Filter: domain.StationFilter{Network: "ChargePoint Network", Pricing: "Free", RadiusMiles: 25, Limit: 25}})

	var gotQuery domain.StationQuery
	var gotFilter domain.StationFilter
	find := f.stations.FindStationsFunc
	f.stations.FindStationsFunc = func(ctx context.Context, q domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error) {
		gotQuery, gotFilter = q, filter
		return find(ctx, q, filter)
	}
	var gotKeyword, gotAddress string
	f.places.FindNearbyFunc = func(ctx context.Context, address, keyword string) ([]domain.PointOfInterest, error) {
		gotAddress, gotKeyword = address, keyword
		return []domain.PointOfInterest{{Name: "Joe's Diner", Rating: 4.5, DistanceMeters: 200}}, nil
	}

	in := NewInput(getStationEnvelope())
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	speech := resp.Speech()
	assert.Contains(t, speech, "less than a mile")
	assert.Contains(t, speech, "Free")
	assert.Contains(t, speech, "ChargePoint")
	assert.Contains(t, speech, "Joe's Diner")

	assert.Equal(t, domain.Location{Latitude: 39.74, Longitude: -104.99}, gotQuery.Location)
	assert.Equal(t, "ChargePoint Network", gotFilter.Network)
	assert.Equal(t, "10 W 14th Ave Pkwy, Denver, CO 80204", gotAddress)
	assert.Equal(t, "stores", gotKeyword)
	assert.Zero(t, f.addresses.Calls)

	require.NotNil(t, resp.Response.ShouldEndSession)
	assert.False(t, *resp.Response.ShouldEndSession)
	require.NotNil(t, resp.Response.Card)
	assert.Equal(t, alexa.CardTypeSimple, resp.Response.Card.Type)

	assert.Equal(t, "GetStation", in.Handler)
	assert.Equal(t, domain.TurnOutcomeAnswered, in.Outcome)
	assert.Equal(t, domain.LocationSourceGeolocation, in.LocationSource)
}

func TestGetStation_Idempotent(t *testing.T) {
	f := newFixture(t, Options{})
	d := f.skill.Dispatcher()

	first := d.Dispatch(context.Background(), NewInput(getStationEnvelope()))
	second := d.Dispatch(context.Background(), NewInput(getStationEnvelope()))

	assert.Equal(t, first, second)
}

func TestGetStation_CategorySlot(t *testing.T) {
	f := newFixture(t, Options{DefaultCategory: "stores"})
	var keyword string
	f.places.FindNearbyFunc = func(ctx context.Context, address, kw string) ([]domain.PointOfInterest, error) {
		keyword = kw
		return nil, nil
	}

	env := getStationEnvelope()
	env.Request.Intent.Slots = map[string]alexa.Slot{SlotCategory: {Name: SlotCategory, Value: "coffee"}}
	resp := f.skill.Dispatcher().Dispatch(context.Background(), NewInput(env))

	assert.Equal(t, "coffee", keyword)
	assert.Contains(t, resp.Speech(), "I couldn't find any coffee within walking distance.")
}

func TestGetStation_NoConsent(t *testing.T) {
	f := newFixture(t, Options{})
	env := getStationEnvelope()
	env.Context.System.User.Permissions = nil

	in := NewInput(env)
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, voice.MissingPermissionsMessage, resp.Speech())
	require.NotNil(t, resp.Response.Card)
	assert.Equal(t, alexa.CardTypePermissionConsent, resp.Response.Card.Type)
	assert.Equal(t, testPermissions, resp.Response.Card.Permissions)
	assert.Zero(t, f.stations.Calls)
	assert.Equal(t, domain.TurnOutcomeNeedsPermission, in.Outcome)
}

func TestGetStation_NeedsLocationPrompt(t *testing.T) {
	f := newFixture(t, Options{})
	env := getStationEnvelope()
	env.Context.Geolocation = nil

	in := NewInput(env)
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, voice.MissingLocationMessage, resp.Speech())
	require.NotNil(t, resp.Response.Reprompt)
	assert.Equal(t, voice.LocationRetryMessage, resp.Response.Reprompt.OutputSpeech.Text)
	assert.Zero(t, f.stations.Calls)
	assert.Equal(t, domain.TurnOutcomeNeedsLocation, in.Outcome)
}

func TestGetStation_NoStations(t *testing.T) {
	f := newFixture(t, Options{})
	f.stations.FindStationsFunc = func(ctx context.Context, q domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error) {
		return nil, nil
	}

	in := NewInput(getStationEnvelope())
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, voice.NoStationsMessage, resp.Speech())
	assert.Zero(t, f.places.Calls)
	assert.Equal(t, domain.TurnOutcomeNoStations, in.Outcome)
}

func TestGetStation_RouteIsOptional(t *testing.T) {
	f := newFixture(t, Options{})
	f.stations.FindStationsFunc = func(ctx context.Context, q domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error) {
		return []domain.Station{{StreetAddress: "1 Main St", DistanceMiles: 2, Pricing: "Free", Latitude: 39.7, Longitude: -105}}, nil
	}

	f.routes.RouteFunc = func(ctx context.Context, from, to domain.Location) (*domain.Route, error) {
		return &domain.Route{DurationSeconds: 600}, nil
	}
	resp := f.skill.Dispatcher().Dispatch(context.Background(), NewInput(getStationEnvelope()))
	assert.Contains(t, resp.Speech(), "about 10 minutes by car")

	f.routes.RouteFunc = func(ctx context.Context, from, to domain.Location) (*domain.Route, error) {
		return nil, errors.New("quota exceeded")
	}
	resp = f.skill.Dispatcher().Dispatch(context.Background(), NewInput(getStationEnvelope()))
	assert.NotContains(t, resp.Speech(), "by car")
	assert.Contains(t, resp.Speech(), "2 miles")
}

func TestGetStation_DeviceAddressForbidden(t *testing.T) {
	f := newFixture(t, Options{})
	f.addresses.GetAddressFunc = func(ctx context.Context, device domain.DeviceContext) (*domain.DeviceAddress, error) {
		return nil, &alexa.ServiceError{StatusCode: http.StatusForbidden, Message: "Forbidden"}
	}
	env := getStationEnvelope()
	env.Context.Geolocation = nil

	in := NewInput(env)
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, voice.MissingPermissionsMessage, resp.Speech())
	require.NotNil(t, resp.Response.Card)
	assert.Equal(t, alexa.CardTypePermissionConsent, resp.Response.Card.Type)
	assert.Equal(t, domain.TurnOutcomeNeedsPermission, in.Outcome)
}

func TestGetStation_DeviceAddressUnavailable(t *testing.T) {
	f := newFixture(t, Options{})
	f.addresses.GetAddressFunc = func(ctx context.Context, device domain.DeviceContext) (*domain.DeviceAddress, error) {
		return nil, &alexa.ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Service Unavailable"}
	}
	env := getStationEnvelope()
	env.Context.Geolocation = nil

	in := NewInput(env)
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, voice.LocationFailureMessage, resp.Speech())
	assert.Equal(t, domain.TurnOutcomeServiceError, in.Outcome)
}

func TestGetStation_UpstreamFailureApologizes(t *testing.T) {
	f := newFixture(t, Options{})
	f.stations.FindStationsFunc = func(ctx context.Context, q domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error) {
		return nil, errors.New("connection refused")
	}

	in := NewInput(getStationEnvelope())
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, voice.ErrorMessage, resp.Speech())
	require.NotNil(t, resp.Response.ShouldEndSession)
	assert.True(t, *resp.Response.ShouldEndSession)
	assert.Equal(t, domain.TurnOutcomeError, in.Outcome)
}

func TestSessionEnded(t *testing.T) {
	f := newFixture(t, Options{})
	env := &alexa.RequestEnvelope{Request: alexa.Request{
		Type:   alexa.RequestTypeSessionEnded,
		Reason: "USER_INITIATED",
	}}

	in := NewInput(env)
	resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

	assert.Equal(t, "SessionEnded", in.Handler)
	assert.Equal(t, alexa.Empty(), resp)
	assert.Empty(t, resp.Speech())
	assert.Zero(t, f.stations.Calls)
	assert.Zero(t, f.addresses.Calls)
}

func TestBuiltInIntents(t *testing.T) {
	tests := []struct {
		name        string
		env         *alexa.RequestEnvelope
		debug       bool
		wantHandler string
		wantSpeech  string
		wantEnd     bool
	}{
		{
			name:        "launch",
			env:         &alexa.RequestEnvelope{Request: alexa.Request{Type: alexa.RequestTypeLaunch}},
			wantHandler: "Launch",
			wantSpeech:  voice.WelcomeMessage,
		},
		{
			name:        "launch in debug mode",
			env:         &alexa.RequestEnvelope{Request: alexa.Request{Type: alexa.RequestTypeLaunch}},
			debug:       true,
			wantHandler: "Launch",
			wantSpeech:  voice.WelcomeDebugMessage,
		},
		{
			name:        "help",
			env:         intentInput(alexa.IntentHelp).Envelope,
			wantHandler: "Help",
			wantSpeech:  voice.HelpMessage,
		},
		{
			name:        "stop",
			env:         intentInput(alexa.IntentStop).Envelope,
			wantHandler: "CancelOrStop",
			wantSpeech:  voice.GoodbyeMessage,
			wantEnd:     true,
		},
		{
			name:        "cancel",
			env:         intentInput(alexa.IntentCancel).Envelope,
			wantHandler: "CancelOrStop",
			wantSpeech:  voice.GoodbyeMessage,
			wantEnd:     true,
		},
		{
			name:        "fallback",
			env:         intentInput(alexa.IntentFallback).Envelope,
			wantHandler: "Fallback",
			wantSpeech:  voice.UnhandledMessage,
		},
		{
			name:        "unknown intent",
			env:         intentInput("OrderPizzaIntent").Envelope,
			wantHandler: "Unhandled",
			wantSpeech:  voice.UnhandledMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{Debug: tt.debug})
			in := NewInput(tt.env)
			resp := f.skill.Dispatcher().Dispatch(context.Background(), in)

			assert.Equal(t, tt.wantHandler, in.Handler)
			assert.Equal(t, tt.wantSpeech, resp.Speech())
			require.NotNil(t, resp.Response.ShouldEndSession)
			assert.Equal(t, tt.wantEnd, *resp.Response.ShouldEndSession)
		})
	}
}

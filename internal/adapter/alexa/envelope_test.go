package alexa

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/ev-station-skill/internal/domain"
)

func loadEnvelope(t *testing.T) *RequestEnvelope {
	t.Helper()
	raw, err := os.ReadFile("testdata/get_station_intent.json")
	require.NoError(t, err)

	var env RequestEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return &env
}

func TestRequestEnvelope_Accessors(t *testing.T) {
	env := loadEnvelope(t)

	require.NoError(t, env.Validate())
	assert.Equal(t, RequestTypeIntent, env.Request.Type)
	assert.Equal(t, "GetStationIntent", env.IntentName())
	assert.Equal(t, "coffee", env.SlotValue("category"))
	assert.Equal(t, "", env.SlotValue("missing"))
	assert.Equal(t, "consent-token", env.ConsentToken())
	assert.Equal(t, "amzn1.ask.skill.ev-station", env.ApplicationID())
	assert.True(t, env.SupportsGeolocation())
	assert.Equal(t, domain.DeviceContext{
		DeviceID:    "amzn1.ask.device.TEST",
		APIEndpoint: "https://api.amazonalexa.com",
		AccessToken: "access-token",
	}, env.DeviceContext())

	ts, err := env.RequestTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC), ts)
}

func TestRequestEnvelope_GeoReading(t *testing.T) {
	env := loadEnvelope(t)

	reading, ok, err := env.GeoReading()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 39.74, reading.Location.Latitude)
	assert.Equal(t, -104.99, reading.Location.Longitude)
	assert.Equal(t, 20.0, reading.AccuracyInMeters)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), reading.CapturedAt)

	env.Context.Geolocation.Timestamp = "yesterday"
	_, ok, err = env.GeoReading()
	assert.True(t, ok)
	assert.Error(t, err)

	env.Context.Geolocation = nil
	_, ok, err = env.GeoReading()
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestRequestEnvelope_ConsentTokenFallsBackToSession(t *testing.T) {
	env := loadEnvelope(t)
	env.Context.System.User.Permissions = nil
	assert.Equal(t, "", env.ConsentToken())

	env.Session.User.Permissions = &Permissions{ConsentToken: "session-token"}
	assert.Equal(t, "session-token", env.ConsentToken())
}

func TestRequestEnvelope_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RequestEnvelope)
		wantErr bool
	}{
		{"valid intent", func(*RequestEnvelope) {}, false},
		{"launch without intent", func(e *RequestEnvelope) {
			e.Request.Type = RequestTypeLaunch
			e.Request.Intent = nil
		}, false},
		{"missing type", func(e *RequestEnvelope) { e.Request.Type = "" }, true},
		{"intent without name", func(e *RequestEnvelope) { e.Request.Intent.Name = "" }, true},
		{"bad timestamp", func(e *RequestEnvelope) { e.Request.Timestamp = "now" }, true},
		{"unknown type passes", func(e *RequestEnvelope) { e.Request.Type = "Display.ElementSelected" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := loadEnvelope(t)
			tt.mutate(env)
			err := env.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequestEnvelope_IntentNameOnlyForIntentRequests(t *testing.T) {
	env := loadEnvelope(t)
	env.Request.Type = RequestTypeLaunch
	assert.Equal(t, "", env.IntentName())
}

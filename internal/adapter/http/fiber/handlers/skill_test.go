package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/mocks"
	"github.com/seu-repo/ev-station-skill/internal/service/skill"
)

type dispatchFunc func(ctx context.Context, in *skill.Input) *alexa.ResponseEnvelope

func (f dispatchFunc) Dispatch(ctx context.Context, in *skill.Input) *alexa.ResponseEnvelope {
	return f(ctx, in)
}

func answering(text string) dispatchFunc {
	return func(ctx context.Context, in *skill.Input) *alexa.ResponseEnvelope {
		in.Handler = "GetStation"
		in.LocationSource = domain.LocationSourceGeolocation
		return alexa.NewResponseBuilder().Speak(text).Build()
	}
}

func fixtureBody(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile("../../../alexa/testdata/get_station_intent.json")
	require.NoError(t, err)
	return body
}

func newApp(h *SkillHandler) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewRequestID())
	h.RegisterRoutes(app)
	return app
}

func post(t *testing.T, app *fiber.App, path string, body []byte) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func TestHandleTurn_Answers(t *testing.T) {
	publisher := &mocks.MockEventPublisher{}
	app := newApp(NewSkillHandler(answering("The nearest station is 1 mile away."), nil, publisher, false, zap.NewNop()))

	for _, path := range []string{"/", "/alexa"} {
		code, body := post(t, app, path, fixtureBody(t))
		assert.Equal(t, fiber.StatusOK, code)

		var resp alexa.ResponseEnvelope
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, "1.0", resp.Version)
		assert.Equal(t, "The nearest station is 1 mile away.", resp.Speech())
	}

	events := publisher.Published()
	require.Len(t, events, 2)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.Equal(t, "GetStationIntent", events[0].Intent)
	assert.Equal(t, "IntentRequest", events[0].RequestType)
	assert.Equal(t, "GetStation", events[0].Handler)
	assert.Equal(t, domain.TurnOutcomeAnswered, events[0].Outcome)
	assert.Equal(t, domain.LocationSourceGeolocation, events[0].LocationSource)
}

func TestHandleTurn_RejectsBadEnvelopes(t *testing.T) {
	called := false
	dispatcher := dispatchFunc(func(ctx context.Context, in *skill.Input) *alexa.ResponseEnvelope {
		called = true
		return alexa.Empty()
	})
	app := newApp(NewSkillHandler(dispatcher, nil, nil, false, zap.NewNop()))

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{not json"},
		{"missing request type", `{"version":"1.0","request":{"requestId":"r1","timestamp":"2026-03-01T12:00:10Z"}}`},
		{"intent without name", `{"version":"1.0","request":{"type":"IntentRequest","requestId":"r1","timestamp":"2026-03-01T12:00:10Z"}}`},
		{"bad timestamp", `{"version":"1.0","request":{"type":"LaunchRequest","requestId":"r1","timestamp":"yesterday"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := post(t, app, "/", []byte(tt.body))
			assert.Equal(t, fiber.StatusBadRequest, code)
		})
	}
	assert.False(t, called)
}

func TestHandleTurn_Verification(t *testing.T) {
	requestTime := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)

	tests := []struct {
		name     string
		verifier alexa.Verifier
		want     int
	}{
		{
			name:     "matching skill and fresh timestamp",
			verifier: alexa.Verifier{SkillID: "amzn1.ask.skill.ev-station", Tolerance: 150 * time.Second, Now: func() time.Time { return requestTime }},
			want:     fiber.StatusOK,
		},
		{
			name:     "other skill",
			verifier: alexa.Verifier{SkillID: "amzn1.ask.skill.other", Now: func() time.Time { return requestTime }},
			want:     fiber.StatusBadRequest,
		},
		{
			name:     "stale request",
			verifier: alexa.Verifier{Tolerance: 150 * time.Second, Now: func() time.Time { return requestTime.Add(10 * time.Minute) }},
			want:     fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(NewSkillHandler(answering("ok"), tt.verifier, nil, false, zap.NewNop()))
			code, _ := post(t, app, "/", fixtureBody(t))
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestHandleTurn_PublishFailureKeepsReply(t *testing.T) {
	publisher := &mocks.MockEventPublisher{
		PublishTurnFunc: func(ctx context.Context, event domain.TurnEvent) error {
			return errors.New("nats: connection closed")
		},
	}
	app := newApp(NewSkillHandler(answering("still here"), nil, publisher, true, zap.NewNop()))

	code, body := post(t, app, "/", fixtureBody(t))
	assert.Equal(t, fiber.StatusOK, code)
	assert.True(t, strings.Contains(string(body), "still here"))
}

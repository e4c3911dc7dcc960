package skill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/domain"
)

func speaking(text string) HandlerFunc {
	return func(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
		return alexa.NewResponseBuilder().Speak(text).Build(), nil
	}
}

func intentInput(name string) *Input {
	return NewInput(&alexa.RequestEnvelope{Request: alexa.Request{
		Type:   alexa.RequestTypeIntent,
		Intent: &alexa.Intent{Name: name},
	}})
}

func TestDispatcher_FirstMatchWins(t *testing.T) {
	var calls []string
	record := func(name string) HandlerFunc {
		return func(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
			calls = append(calls, name)
			return alexa.NewResponseBuilder().Speak(name).Build(), nil
		}
	}

	d := NewDispatcher([]RequestHandler{
		{Name: "a", CanHandle: IsIntentName("Other"), Handle: record("a")},
		{Name: "b", CanHandle: IsIntentName("Target", "Alias"), Handle: record("b")},
		{Name: "c", CanHandle: IsRequestType(alexa.RequestTypeIntent), Handle: record("c")},
	}, RequestHandler{Name: "unhandled", Handle: record("unhandled")}, nil, zap.NewNop())

	in := intentInput("Target")
	resp := d.Dispatch(context.Background(), in)

	assert.Equal(t, "b", resp.Speech())
	assert.Equal(t, []string{"b"}, calls)
	assert.Equal(t, "b", in.Handler)
}

func TestDispatcher_DropsHandlerWithoutPredicate(t *testing.T) {
	d := NewDispatcher([]RequestHandler{
		{Name: "broken", Handle: speaking("broken")},
		{Name: "target", CanHandle: IsIntentName("Target"), Handle: speaking("target")},
	}, RequestHandler{Name: "unhandled", Handle: speaking("unhandled")}, nil, zap.NewNop())

	var resp *alexa.ResponseEnvelope
	require.NotPanics(t, func() {
		resp = d.Dispatch(context.Background(), intentInput("Nope"))
	})
	assert.Equal(t, "unhandled", resp.Speech())

	in := intentInput("Target")
	assert.Equal(t, "target", d.Dispatch(context.Background(), in).Speech())
	assert.Equal(t, "target", in.Handler)
}

func TestDispatcher_Unhandled(t *testing.T) {
	d := NewDispatcher([]RequestHandler{
		{Name: "launch", CanHandle: IsRequestType(alexa.RequestTypeLaunch), Handle: speaking("launch")},
	}, RequestHandler{Name: "unhandled", Handle: speaking("unhandled")}, nil, zap.NewNop())

	resp := d.Dispatch(context.Background(), intentInput("Nope"))
	assert.Equal(t, "unhandled", resp.Speech())
}

func TestDispatcher_ExceptionChain(t *testing.T) {
	errSpecial := errors.New("special")
	failing := func(err error) HandlerFunc {
		return func(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
			return nil, err
		}
	}
	exceptions := []ExceptionHandler{
		{
			Name:      "special",
			CanHandle: func(_ *Input, err error) bool { return errors.Is(err, errSpecial) },
			Handle: func(ctx context.Context, in *Input, err error) *alexa.ResponseEnvelope {
				return alexa.NewResponseBuilder().Speak("special").Build()
			},
		},
	}

	t.Run("typed handler", func(t *testing.T) {
		d := NewDispatcher([]RequestHandler{
			{Name: "x", CanHandle: IsIntentName("X"), Handle: failing(errSpecial)},
		}, RequestHandler{Name: "u", Handle: speaking("u")}, exceptions, zap.NewNop())

		resp := d.Dispatch(context.Background(), intentInput("X"))
		assert.Equal(t, "special", resp.Speech())
	})

	t.Run("default catch-all appended", func(t *testing.T) {
		d := NewDispatcher([]RequestHandler{
			{Name: "x", CanHandle: IsIntentName("X"), Handle: failing(errors.New("boom"))},
		}, RequestHandler{Name: "u", Handle: speaking("u")}, exceptions, zap.NewNop())

		in := intentInput("X")
		resp := d.Dispatch(context.Background(), in)
		assert.Equal(t, fallbackApology, resp.Speech())
		assert.Equal(t, domain.TurnOutcomeError, in.Outcome)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		d := NewDispatcher([]RequestHandler{
			{Name: "x", CanHandle: IsIntentName("X"), Handle: func(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
				panic("nil map")
			}},
		}, RequestHandler{Name: "u", Handle: speaking("u")}, nil, zap.NewNop())

		resp := d.Dispatch(context.Background(), intentInput("X"))
		require.NotNil(t, resp)
		assert.Equal(t, fallbackApology, resp.Speech())
	})

	t.Run("nil response counts as error", func(t *testing.T) {
		d := NewDispatcher([]RequestHandler{
			{Name: "x", CanHandle: IsIntentName("X"), Handle: func(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
				return nil, nil
			}},
		}, RequestHandler{Name: "u", Handle: speaking("u")}, nil, zap.NewNop())

		resp := d.Dispatch(context.Background(), intentInput("X"))
		assert.Equal(t, fallbackApology, resp.Speech())
	})
}

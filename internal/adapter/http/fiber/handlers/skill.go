package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
	"github.com/seu-repo/ev-station-skill/internal/ports"
	"github.com/seu-repo/ev-station-skill/internal/service/skill"
)

// Dispatcher is satisfied by *skill.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, in *skill.Input) *alexa.ResponseEnvelope
}

// Verifier is satisfied by alexa.Verifier.
type Verifier interface {
	Verify(env *alexa.RequestEnvelope) error
}

// SkillHandler is the voice platform webhook.
type SkillHandler struct {
	dispatcher Dispatcher
	verifier   Verifier
	publisher  ports.EventPublisher
	debug      bool
	log        *zap.Logger
}

// NewSkillHandler wires the webhook. verifier may be nil to accept every
// well-formed envelope.
func NewSkillHandler(dispatcher Dispatcher, verifier Verifier, publisher ports.EventPublisher, debug bool, log *zap.Logger) *SkillHandler {
	return &SkillHandler{
		dispatcher: dispatcher,
		verifier:   verifier,
		publisher:  publisher,
		debug:      debug,
		log:        log,
	}
}

// RegisterRoutes mounts the webhook on / and /alexa.
func (h *SkillHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/", h.HandleTurn)
	app.Post("/alexa", h.HandleTurn)
}

// HandleTurn answers one request envelope. Once the envelope parses the reply
// is always 200 with a response envelope.
func (h *SkillHandler) HandleTurn(c *fiber.Ctx) error {
	start := time.Now()
	requestID := middleware.RequestID(c)

	var env alexa.RequestEnvelope
	if err := json.Unmarshal(c.Body(), &env); err != nil {
		telemetry.RejectedEnvelopesTotal.WithLabelValues("malformed").Inc()
		h.log.Warn("Malformed request envelope", zap.Error(err), zap.String("request_id", requestID))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request envelope"})
	}

	if err := env.Validate(); err != nil {
		telemetry.RejectedEnvelopesTotal.WithLabelValues("invalid").Inc()
		h.log.Warn("Invalid request envelope", zap.Error(err), zap.String("request_id", requestID))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if h.verifier != nil {
		if err := h.verifier.Verify(&env); err != nil {
			telemetry.RejectedEnvelopesTotal.WithLabelValues("unverified").Inc()
			h.log.Warn("Request envelope failed verification",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("alexa_request_id", env.Request.RequestID),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Request verification failed"})
		}
	}

	if h.debug {
		h.log.Debug("Request envelope", zap.ByteString("body", c.Body()))
	}

	ctx := c.UserContext()
	in := skill.NewInput(&env)
	resp := h.dispatcher.Dispatch(ctx, in)

	latency := time.Since(start)
	telemetry.TurnsTotal.WithLabelValues(in.Handler, string(in.Outcome)).Inc()
	telemetry.TurnLatency.WithLabelValues(in.Handler).Observe(latency.Seconds())

	if h.debug {
		if body, err := json.Marshal(resp); err == nil {
			h.log.Debug("Response envelope", zap.ByteString("body", body))
		}
	}

	h.publish(ctx, &env, in, latency)

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SkillHandler) publish(ctx context.Context, env *alexa.RequestEnvelope, in *skill.Input, latency time.Duration) {
	if h.publisher == nil {
		return
	}

	event := domain.TurnEvent{
		ID:             uuid.NewString(),
		RequestID:      env.Request.RequestID,
		RequestType:    string(env.Request.Type),
		Intent:         env.IntentName(),
		Handler:        in.Handler,
		Outcome:        in.Outcome,
		LocationSource: in.LocationSource,
		Latency:        latency,
		OccurredAt:     time.Now().UTC(),
	}

	if err := h.publisher.PublishTurn(ctx, event); err != nil {
		h.log.Warn("Failed to publish turn event",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("handler", event.Handler),
		)
	}
}

// Package skill routes voice turns to handlers.
//
// Handlers are tried in registration order and the first whose predicate
// matches handles the turn. Errors and panics raised by a handler go through
// an ordered chain of exception handlers that always ends in a catch-all, so
// every turn produces a reply.
package skill

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
)

// Input carries one turn through the dispatcher. Handlers record what happened
// in Outcome and LocationSource.
type Input struct {
	Envelope *alexa.RequestEnvelope

	Handler        string
	Outcome        domain.TurnOutcome
	LocationSource domain.LocationSource
}

func NewInput(env *alexa.RequestEnvelope) *Input {
	return &Input{Envelope: env, Outcome: domain.TurnOutcomeAnswered}
}

type Predicate func(in *Input) bool

type HandlerFunc func(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error)

type RequestHandler struct {
	Name      string
	CanHandle Predicate
	Handle    HandlerFunc
}

// ExceptionHandler turns a handler error into a reply. A nil CanHandle
// accepts every error.
type ExceptionHandler struct {
	Name      string
	CanHandle func(in *Input, err error) bool
	Handle    func(ctx context.Context, in *Input, err error) *alexa.ResponseEnvelope
}

// IsRequestType matches envelopes of type t.
func IsRequestType(t alexa.RequestType) Predicate {
	return func(in *Input) bool {
		return in.Envelope.Request.Type == t
	}
}

// IsIntentName matches intent requests naming any of names.
func IsIntentName(names ...string) Predicate {
	return func(in *Input) bool {
		intent := in.Envelope.IntentName()
		for _, n := range names {
			if intent == n {
				return true
			}
		}
		return false
	}
}

type Dispatcher struct {
	handlers   []RequestHandler
	unhandled  RequestHandler
	exceptions []ExceptionHandler
	log        *zap.Logger
}

// NewDispatcher copies the handler slices. Request handlers without a
// predicate are dropped. When the exception chain does not end in a handler
// that accepts every error, a default catch-all is appended.
func NewDispatcher(handlers []RequestHandler, unhandled RequestHandler, exceptions []ExceptionHandler, log *zap.Logger) *Dispatcher {
	routable := make([]RequestHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.CanHandle == nil {
			log.Error("Dropping request handler without predicate", zap.String("handler", h.Name))
			continue
		}
		routable = append(routable, h)
	}

	d := &Dispatcher{
		handlers:   routable,
		unhandled:  unhandled,
		exceptions: append([]ExceptionHandler(nil), exceptions...),
		log:        log,
	}
	if n := len(d.exceptions); n == 0 || d.exceptions[n-1].CanHandle != nil {
		d.exceptions = append(d.exceptions, defaultCatchAll(log))
	}
	return d
}

// Dispatch runs exactly one request handler and, if it fails, the first
// matching exception handler. It never returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, in *Input) *alexa.ResponseEnvelope {
	ctx, span := telemetry.Tracer().Start(ctx, "skill.Dispatch")
	defer span.End()

	h := d.route(in)
	in.Handler = h.Name
	span.SetAttributes(
		attribute.String("skill.request_type", string(in.Envelope.Request.Type)),
		attribute.String("skill.intent", in.Envelope.IntentName()),
		attribute.String("skill.handler", h.Name),
	)

	resp, err := d.run(ctx, h, in)
	if err == nil && resp != nil {
		return resp
	}
	if err == nil {
		err = fmt.Errorf("handler %s returned no response", h.Name)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return d.handleError(ctx, in, err)
}

func (d *Dispatcher) route(in *Input) RequestHandler {
	for _, h := range d.handlers {
		if h.CanHandle(in) {
			return h
		}
	}
	return d.unhandled
}

func (d *Dispatcher) run(ctx context.Context, h RequestHandler, in *Input) (resp *alexa.ResponseEnvelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Handler panicked",
				zap.String("handler", h.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			resp, err = nil, fmt.Errorf("handler %s panicked: %v", h.Name, r)
		}
	}()
	return h.Handle(ctx, in)
}

func (d *Dispatcher) handleError(ctx context.Context, in *Input, err error) (resp *alexa.ResponseEnvelope) {
	for _, eh := range d.exceptions {
		if eh.CanHandle != nil && !eh.CanHandle(in, err) {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Error("Exception handler panicked", zap.String("handler", eh.Name), zap.Any("panic", r))
					resp = nil
				}
			}()
			resp = eh.Handle(ctx, in, err)
		}()
		if resp != nil {
			return resp
		}
	}

	in.Outcome = domain.TurnOutcomeError
	return alexa.NewResponseBuilder().Speak(fallbackApology).Build()
}

const fallbackApology = "Sorry, something went wrong."

func defaultCatchAll(log *zap.Logger) ExceptionHandler {
	return ExceptionHandler{
		Name: "DefaultCatchAll",
		Handle: func(ctx context.Context, in *Input, err error) *alexa.ResponseEnvelope {
			log.Error("Unhandled error", zap.String("handler", in.Handler), zap.Error(err))
			in.Outcome = domain.TurnOutcomeError
			return alexa.NewResponseBuilder().Speak(fallbackApology).Build()
		},
	}
}

package skill

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/adapter/alexa"
	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/ports"
	"github.com/seu-repo/ev-station-skill/internal/service/location"
	"github.com/seu-repo/ev-station-skill/internal/service/voice"
)

const (
	IntentGetStation = "GetStationIntent"
	SlotCategory     = "category"
)

// LocationResolver is satisfied by *location.Resolver.
type LocationResolver interface {
	Resolve(ctx context.Context, env *alexa.RequestEnvelope) (location.Resolution, error)
}

type Options struct {
	Filter          domain.StationFilter
	Permissions     []string
	DefaultCategory string
	Debug           bool
}

// Skill holds the collaborators the handlers need. Routes may be nil.
type Skill struct {
	resolver LocationResolver
	stations ports.StationFinder
	places   ports.PlaceFinder
	routes   ports.RoutePlanner
	selector voice.Selector
	opts     Options
	log      *zap.Logger
}

func New(
	resolver LocationResolver,
	stations ports.StationFinder,
	places ports.PlaceFinder,
	routes ports.RoutePlanner,
	selector voice.Selector,
	opts Options,
	log *zap.Logger,
) *Skill {
	if selector == nil {
		selector = voice.FirstSelector{}
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = "stores"
	}
	return &Skill{
		resolver: resolver,
		stations: stations,
		places:   places,
		routes:   routes,
		selector: selector,
		opts:     opts,
		log:      log,
	}
}

// Dispatcher wires the skill's handlers in their fixed order.
func (s *Skill) Dispatcher() *Dispatcher {
	handlers := []RequestHandler{
		{Name: "Launch", CanHandle: IsRequestType(alexa.RequestTypeLaunch), Handle: s.handleLaunch},
		{Name: "GetStation", CanHandle: IsIntentName(IntentGetStation), Handle: s.handleGetStation},
		{Name: "Help", CanHandle: IsIntentName(alexa.IntentHelp), Handle: s.handleHelp},
		{Name: "CancelOrStop", CanHandle: IsIntentName(alexa.IntentCancel, alexa.IntentStop), Handle: s.handleCancelOrStop},
		{Name: "Fallback", CanHandle: IsIntentName(alexa.IntentFallback), Handle: s.handleUnhandled},
		{Name: "SessionEnded", CanHandle: IsRequestType(alexa.RequestTypeSessionEnded), Handle: s.handleSessionEnded},
	}
	unhandled := RequestHandler{Name: "Unhandled", Handle: s.handleUnhandled}
	exceptions := []ExceptionHandler{
		{Name: "ServiceException", CanHandle: isServiceError, Handle: s.handleServiceError},
		{Name: "CatchAll", Handle: s.handleAnyError},
	}
	return NewDispatcher(handlers, unhandled, exceptions, s.log)
}

func (s *Skill) handleLaunch(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
	welcome := voice.WelcomeMessage
	if s.opts.Debug {
		welcome = voice.WelcomeDebugMessage
	}
	return alexa.NewResponseBuilder().Speak(welcome).Ask(voice.AskMessage).Build(), nil
}

func (s *Skill) handleGetStation(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
	env := in.Envelope

	res, err := s.resolver.Resolve(ctx, env)
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case location.NeedsPermission:
		in.Outcome = domain.TurnOutcomeNeedsPermission
		return s.permissionResponse(), nil
	case location.NeedsPrompt:
		in.Outcome = domain.TurnOutcomeNeedsLocation
		return alexa.NewResponseBuilder().
			Speak(voice.MissingLocationMessage).
			Ask(voice.LocationRetryMessage).
			Build(), nil
	}
	in.LocationSource = res.Source

	stations, err := s.stations.FindStations(ctx, domain.StationQuery{Location: res.Location}, s.opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("find stations: %w", err)
	}

	station, ok := voice.Select(s.selector, stations)
	if !ok {
		in.Outcome = domain.TurnOutcomeNoStations
		return alexa.NewResponseBuilder().
			Speak(voice.NoStationsMessage).
			Ask(voice.AnythingElse).
			Build(), nil
	}

	category := env.SlotValue(SlotCategory)
	if category == "" {
		category = s.opts.DefaultCategory
	}

	places, err := s.places.FindNearby(ctx, station.Address(), category)
	if err != nil {
		return nil, fmt.Errorf("find places near station: %w", err)
	}

	answer := voice.Answer{
		Station:    station,
		Category:   category,
		PlaceCount: len(places),
		AvgRating:  domain.AverageRating(places),
		Route:      s.route(ctx, res.Location, station),
	}
	if place, ok := voice.Select(s.selector, places); ok {
		answer.Place = &place
	}

	s.log.Debug("Station selected",
		zap.String("station", station.Name),
		zap.Float64("distance_mi", station.DistanceMiles),
		zap.String("location_source", string(res.Source)),
		zap.Int("places", len(places)),
	)

	return alexa.NewResponseBuilder().
		Speak(voice.ComposeAnswer(answer)).
		Ask(voice.AnythingElse).
		SimpleCard(station.Name, station.Address()).
		Build(), nil
}

// route is best effort; a failure only drops the drive time from the reply.
func (s *Skill) route(ctx context.Context, from domain.Location, station domain.Station) *domain.Route {
	if s.routes == nil || station.Location().IsZero() {
		return nil
	}
	r, err := s.routes.Route(ctx, from, station.Location())
	if err != nil {
		s.log.Warn("Route lookup failed", zap.Error(err))
		return nil
	}
	return r
}

func (s *Skill) handleHelp(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
	return alexa.NewResponseBuilder().Speak(voice.HelpMessage).Ask(voice.HelpMessage).Build(), nil
}

func (s *Skill) handleCancelOrStop(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
	in.Outcome = domain.TurnOutcomeEnded
	return alexa.NewResponseBuilder().Speak(voice.GoodbyeMessage).Build(), nil
}

func (s *Skill) handleUnhandled(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
	return alexa.NewResponseBuilder().Speak(voice.UnhandledMessage).Ask(voice.HelpMessage).Build(), nil
}

func (s *Skill) handleSessionEnded(ctx context.Context, in *Input) (*alexa.ResponseEnvelope, error) {
	in.Outcome = domain.TurnOutcomeEnded
	req := in.Envelope.Request
	fields := []zap.Field{zap.String("reason", req.Reason)}
	if req.Error != nil {
		fields = append(fields, zap.String("error_type", req.Error.Type), zap.String("error", req.Error.Message))
	}
	s.log.Info("Session ended", fields...)
	return alexa.Empty(), nil
}

func isServiceError(_ *Input, err error) bool {
	var svcErr *alexa.ServiceError
	return errors.As(err, &svcErr)
}

func (s *Skill) handleServiceError(ctx context.Context, in *Input, err error) *alexa.ResponseEnvelope {
	var svcErr *alexa.ServiceError
	errors.As(err, &svcErr)

	s.log.Warn("Voice platform service error", zap.Int("status", svcErr.StatusCode), zap.Error(err))
	if svcErr.Forbidden() {
		in.Outcome = domain.TurnOutcomeNeedsPermission
		return s.permissionResponse()
	}

	in.Outcome = domain.TurnOutcomeServiceError
	return alexa.NewResponseBuilder().
		Speak(voice.LocationFailureMessage).
		Ask(voice.LocationFailureMessage).
		Build()
}

func (s *Skill) handleAnyError(ctx context.Context, in *Input, err error) *alexa.ResponseEnvelope {
	s.log.Error("Turn failed",
		zap.String("handler", in.Handler),
		zap.String("request_id", in.Envelope.Request.RequestID),
		zap.Error(err),
	)
	in.Outcome = domain.TurnOutcomeError
	return alexa.NewResponseBuilder().Speak(voice.ErrorMessage).Build()
}

func (s *Skill) permissionResponse() *alexa.ResponseEnvelope {
	return alexa.NewResponseBuilder().
		Speak(voice.MissingPermissionsMessage).
		PermissionCard(s.opts.Permissions).
		Build()
}

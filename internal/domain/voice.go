package domain

import "time"

// TurnOutcome is the coarse result of one request/response exchange.
type TurnOutcome string

const (
	TurnOutcomeAnswered        TurnOutcome = "answered"
	TurnOutcomeNeedsPermission TurnOutcome = "needs_permission"
	TurnOutcomeNeedsLocation   TurnOutcome = "needs_location"
	TurnOutcomeNoStations      TurnOutcome = "no_stations"
	TurnOutcomeServiceError    TurnOutcome = "service_error"
	TurnOutcomeError           TurnOutcome = "error"
	TurnOutcomeEnded           TurnOutcome = "ended"
)

// TurnEvent is published after every turn for downstream analytics.
// It carries no user identifiers or coordinates.
type TurnEvent struct {
	ID             string         `json:"id"`
	RequestID      string         `json:"request_id"`
	RequestType    string         `json:"request_type"`
	Intent         string         `json:"intent,omitempty"`
	Handler        string         `json:"handler"`
	Outcome        TurnOutcome    `json:"outcome"`
	LocationSource LocationSource `json:"location_source,omitempty"`
	Latency        time.Duration  `json:"latency_ns"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

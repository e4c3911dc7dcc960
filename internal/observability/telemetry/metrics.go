package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	// Skill metrics
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evskill_turns_total",
		Help: "Voice turns handled, by handler and outcome",
	}, []string{"handler", "outcome"})

	TurnLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evskill_turn_latency_seconds",
		Help:    "Time from envelope receipt to reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	LocationResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evskill_location_resolutions_total",
		Help: "Location resolver results, by outcome and source",
	}, []string{"outcome", "source"})

	RejectedEnvelopesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evskill_rejected_envelopes_total",
		Help: "Inbound envelopes rejected before dispatch",
	}, []string{"reason"})

	// Upstream metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evskill_upstream_requests_total",
		Help: "Calls to third-party APIs, by service and result",
	}, []string{"service", "result"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evskill_upstream_latency_seconds",
		Help:    "Latency of calls to third-party APIs",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evskill_circuit_breaker_state",
		Help: "Breaker state per upstream (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	// Infrastructure metrics
	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evskill_cache_lookups_total",
		Help: "Geocode cache lookups, by result",
	}, []string{"result"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evskill_events_published_total",
		Help: "Turn events handed to the message bus",
	}, []string{"driver", "result"})
)

// ObserveUpstream records one outbound call. Call it with defer and a pointer
// to the named error result.
func ObserveUpstream(service string, start time.Time, err *error) {
	result := "ok"
	if err != nil && *err != nil {
		result = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(service, result).Inc()
	UpstreamLatency.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// RecordBreakerState matches circuitbreaker.StateListener.
func RecordBreakerState(name string, _, to gobreaker.State) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(to))
}

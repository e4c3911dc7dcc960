package circuitbreaker

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/pkg/config"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker is open")

// serverError marks a 5xx reply so the breaker counts it as a failure while
// the response still reaches the caller.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: %d", e.status)
}

// StateListener is notified on every breaker state transition.
type StateListener func(name string, from, to gobreaker.State)

// HTTPClient wraps an HTTP client with circuit breaker protection
type HTTPClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewHTTPClient builds a client for one upstream. With cfg.Enabled false the
// breaker never trips and the client is a plain timeout-bounded http.Client.
func NewHTTPClient(name string, timeout time.Duration, cfg config.CircuitBreakerConfig, log *zap.Logger, listeners ...StateListener) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if !cfg.Enabled || counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			for _, l := range listeners {
				l(name, from, to)
			}
		},
	}

	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// Do executes an HTTP request with circuit breaker protection. Responses with
// a 5xx status are returned as-is but count against the breaker.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, &serverError{status: resp.StatusCode}
		}
		return resp, nil
	})

	var srvErr *serverError
	switch {
	case err == nil:
		return result.(*http.Response), nil
	case errors.As(err, &srvErr):
		return result.(*http.Response), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.log.Warn("Circuit breaker open, request blocked",
			zap.String("url", req.URL.Redacted()),
			zap.String("breaker", c.breaker.Name()),
		)
		return nil, fmt.Errorf("%s: %w", c.breaker.Name(), ErrOpen)
	default:
		return nil, err
	}
}

func (c *HTTPClient) Name() string {
	return c.breaker.Name()
}

func (c *HTTPClient) State() gobreaker.State {
	return c.breaker.State()
}

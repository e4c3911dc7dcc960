package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/domain"
	"github.com/seu-repo/ev-station-skill/internal/observability/telemetry"
	"github.com/seu-repo/ev-station-skill/internal/ports"
	"github.com/seu-repo/ev-station-skill/pkg/config"
)

// MessageQueue is the transport under TurnPublisher.
type MessageQueue interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Ping() error
	Close() error
}

// TurnPublisher serializes turn events onto a message queue subject.
type TurnPublisher struct {
	queue   MessageQueue
	subject string
	driver  string
	log     *zap.Logger
}

func NewTurnPublisher(queue MessageQueue, driver, subject string, log *zap.Logger) *TurnPublisher {
	return &TurnPublisher{queue: queue, subject: subject, driver: driver, log: log}
}

func (p *TurnPublisher) PublishTurn(ctx context.Context, event domain.TurnEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}

	if err := p.queue.Publish(ctx, p.subject, data); err != nil {
		telemetry.EventsPublishedTotal.WithLabelValues(p.driver, "error").Inc()
		return fmt.Errorf("failed to publish turn event: %w", err)
	}
	telemetry.EventsPublishedTotal.WithLabelValues(p.driver, "ok").Inc()
	return nil
}

func (p *TurnPublisher) Ping() error {
	return p.queue.Ping()
}

func (p *TurnPublisher) Close() error {
	return p.queue.Close()
}

// NopPublisher drops every event. Used when events.driver is "none".
type NopPublisher struct{}

func (NopPublisher) PublishTurn(context.Context, domain.TurnEvent) error { return nil }
func (NopPublisher) Ping() error                                         { return nil }
func (NopPublisher) Close() error                                        { return nil }

// NewPublisher connects the message bus selected by cfg.Events.Driver.
func NewPublisher(cfg *config.Config, log *zap.Logger) (ports.EventPublisher, error) {
	switch cfg.Events.Driver {
	case "", "none":
		return NopPublisher{}, nil
	case "nats":
		q, err := NewNATSQueue(cfg.NATS.URL, cfg.NATS.MaxReconnects, cfg.NATS.ReconnectWait, log)
		if err != nil {
			return nil, err
		}
		return NewTurnPublisher(q, "nats", cfg.Events.Subject, log), nil
	case "rabbitmq":
		q, err := NewRabbitMQQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			return nil, err
		}
		return NewTurnPublisher(q, "rabbitmq", cfg.Events.Subject, log), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
}

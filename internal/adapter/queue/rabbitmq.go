package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const rabbitReconnectDelay = 5 * time.Second

// RabbitMQQueue publishes to one durable topic exchange; the subject becomes
// the routing key.
type RabbitMQQueue struct {
	url      string
	exchange string
	log      *zap.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	closed chan struct{}
	once   sync.Once
}

// NewRabbitMQQueue dials the broker, declares the exchange and starts a
// goroutine that reconnects after connection loss.
func NewRabbitMQQueue(url, exchange string, log *zap.Logger) (*RabbitMQQueue, error) {
	q := &RabbitMQQueue{
		url:      url,
		exchange: exchange,
		log:      log,
		closed:   make(chan struct{}),
	}

	conn, ch, err := q.dial()
	if err != nil {
		return nil, err
	}
	q.conn, q.channel = conn, ch

	go q.monitorConnection()

	log.Info("Successfully connected to RabbitMQ", zap.String("exchange", exchange))
	return q, nil
}

func (q *RabbitMQQueue) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(q.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %q: %w", q.exchange, err)
	}
	return conn, ch, nil
}

func (q *RabbitMQQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.channel == nil || q.channel.IsClosed() {
		return errors.New("rabbitmq: channel not available")
	}

	err := q.channel.PublishWithContext(ctx, q.exchange, subject, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// Ping reports whether the connection is currently up.
func (q *RabbitMQQueue) Ping() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.conn == nil || q.conn.IsClosed() {
		return errors.New("rabbitmq: connection closed")
	}
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.once.Do(func() { close(q.closed) })

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func (q *RabbitMQQueue) monitorConnection() {
	for {
		q.mu.RLock()
		notify := q.conn.NotifyClose(make(chan *amqp.Error, 1))
		q.mu.RUnlock()

		select {
		case <-q.closed:
			return
		case reason, ok := <-notify:
			if !ok {
				return
			}
			q.log.Warn("RabbitMQ connection lost, reconnecting", zap.String("reason", reason.Reason))
		}

		if !q.reconnect() {
			return
		}
	}
}

// reconnect retries until it succeeds or Close is called.
func (q *RabbitMQQueue) reconnect() bool {
	for {
		select {
		case <-q.closed:
			return false
		case <-time.After(rabbitReconnectDelay):
		}

		conn, ch, err := q.dial()
		if err != nil {
			q.log.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
			continue
		}

		q.mu.Lock()
		q.conn, q.channel = conn, ch
		q.mu.Unlock()

		q.log.Info("Successfully reconnected to RabbitMQ")
		return true
	}
}

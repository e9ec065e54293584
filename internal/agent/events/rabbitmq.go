package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/voicecv-core/server/internal/agent/model"
	logx "github.com/voicecv-core/server/pkg/logger"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ publishes events as persistent JSON messages on a topic exchange.
type RabbitMQ struct {
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
	mu         sync.Mutex
}

// NewRabbitMQ dials cfg.URL and declares the exchange.
func NewRabbitMQ(cfg model.EventsConfig) (*RabbitMQ, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq url is empty")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	p, err := newRabbitMQ(ch, cfg.Exchange, cfg.RoutingKey)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	logx.Info().Str("exchange", cfg.Exchange).Msg("Connected to RabbitMQ")
	return p, nil
}

func newRabbitMQ(ch channel, exchange, routingKey string) (*RabbitMQ, error) {
	if exchange == "" {
		return nil, fmt.Errorf("rabbitmq exchange is empty")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	if routingKey == "" {
		routingKey = EventCompleted
	}
	return &RabbitMQ{ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

func (r *RabbitMQ) PublishCompleted(ctx context.Context, event CompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.ch.PublishWithContext(ctx, r.exchange, r.routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    event.SessionID,
		Type:         event.Type,
		Body:         body,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ch.Close(); err != nil {
		logx.Warn().Err(err).Msg("failed to close rabbitmq channel")
	}
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

var _ Publisher = (*RabbitMQ)(nil)

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/events"
)

// DefaultAMQPExchange is the fanout exchange every node binds a private queue to.
const DefaultAMQPExchange = "viberide.events"

// AMQPConfig contains RabbitMQ connection configuration.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// AMQPBus distributes events through a RabbitMQ fanout exchange.
type AMQPBus struct {
	relay
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	wg sync.WaitGroup
}

// NewAMQPBus connects to RabbitMQ. When the broker is unreachable the bus
// delivers locally only.
func NewAMQPBus(cfg AMQPConfig, nodeID string, logger zerolog.Logger) (*AMQPBus, error) {
	logger = logger.With().Str("component", "eventbus").Str("transport", "amqp").Logger()
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultAMQPExchange
	}
	ab := &AMQPBus{relay: newRelay(nodeID, logger), exchange: cfg.Exchange}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("RabbitMQ connection failed, using in-memory fallback")
		return ab, nil
	}

	deliveries, ch, err := ab.setup(conn)
	if err != nil {
		_ = conn.Close()
		logger.Warn().Err(err).Msg("RabbitMQ setup failed, using in-memory fallback")
		return ab, nil
	}

	ab.conn = conn
	ab.ch = ch
	ab.wg.Add(1)
	go ab.receive(deliveries)

	logger.Info().Str("exchange", cfg.Exchange).Str("node_id", nodeID).Msg("RabbitMQ event bus initialized")
	return ab, nil
}

// setup declares the exchange and an exclusive queue for this node.
func (ab *AMQPBus) setup(conn *amqp.Connection) (<-chan amqp.Delivery, *amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(ab.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", ab.exchange, false, nil); err != nil {
		return nil, nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, ab.nodeID, true, true, false, false, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, ch, nil
}

func (ab *AMQPBus) receive(deliveries <-chan amqp.Delivery) {
	defer ab.wg.Done()
	for d := range deliveries {
		ab.deliver(d.Body)
	}
	ab.logger.Debug().Msg("RabbitMQ consumer stopped")
}

// Publish delivers locally and to every other node.
func (ab *AMQPBus) Publish(eventType events.EventType, payload events.Payload) {
	data, ok := ab.publishLocal(eventType, payload)
	if !ok {
		return
	}

	ab.mu.Lock()
	defer ab.mu.Unlock()
	if ab.ch == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := ab.ch.PublishWithContext(ctx, ab.exchange, SubjectPrefix+string(eventType), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        data,
	})
	if err != nil {
		ab.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to RabbitMQ")
	}
}

// Close closes the channel and connection and waits for the consumer.
func (ab *AMQPBus) Close() error {
	ab.mu.Lock()
	ch, conn := ab.ch, ab.conn
	ab.ch, ab.conn = nil, nil
	ab.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	var err error
	if conn != nil {
		err = conn.Close()
	}
	ab.wg.Wait()
	return err
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus fans domain events out to other service instances over
// Redis pub/sub, NATS or RabbitMQ. Every bus also delivers to local
// subscribers through an in-process events.Bus, and falls back to it alone
// when the broker is unreachable.
package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/telemetry"
)

// SubjectPrefix prefixes the channel, subject or routing key of every event.
const SubjectPrefix = "viberide.events."

// message is the wire envelope shared by all transports.
type message struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

func marshalMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	return json.Marshal(message{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
		MessageID: uuid.NewString(),
	})
}

func unmarshalMessage(data []byte) (*message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal event message: %w", err)
	}
	if msg.EventType == "" {
		return nil, fmt.Errorf("event message without type")
	}
	return &msg, nil
}

// NodeID identifies this process on the bus. An empty instanceID uses the
// hostname; a random suffix keeps restarts apart.
func NodeID(instanceID string) string {
	if instanceID == "" {
		instanceID, _ = os.Hostname()
	}
	if instanceID == "" {
		instanceID = "node"
	}
	return instanceID + "-" + uuid.NewString()[:8]
}

// relay holds the local side shared by every distributed bus.
type relay struct {
	local  *events.Bus
	nodeID string
	logger zerolog.Logger
}

func newRelay(nodeID string, logger zerolog.Logger) relay {
	return relay{local: events.NewBus(), nodeID: nodeID, logger: logger}
}

// Subscribe registers a local subscriber; remote events are re-published locally.
func (r *relay) Subscribe(eventType events.EventType) events.Subscriber {
	return r.local.Subscribe(eventType)
}

// Unsubscribe removes a local subscriber.
func (r *relay) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	r.local.Unsubscribe(eventType, sub)
}

// publishLocal delivers to this node and encodes the envelope for the wire.
func (r *relay) publishLocal(eventType events.EventType, payload events.Payload) ([]byte, bool) {
	telemetry.EventsPublishedTotal.WithLabelValues(string(eventType)).Inc()
	r.local.Publish(eventType, payload)

	data, err := marshalMessage(eventType, payload, r.nodeID)
	if err != nil {
		r.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to encode event")
		return nil, false
	}
	return data, true
}

// deliver hands a remote message to local subscribers. Messages this node
// sent itself are dropped since they were already delivered locally.
func (r *relay) deliver(data []byte) bool {
	msg, err := unmarshalMessage(data)
	if err != nil {
		r.logger.Warn().Err(err).Msg("dropping malformed event message")
		return false
	}
	if msg.NodeID == r.nodeID {
		return false
	}
	r.local.Publish(msg.EventType, msg.Payload)
	r.logger.Debug().
		Str("event_type", string(msg.EventType)).
		Str("source_node", msg.NodeID).
		Msg("delivered remote event")
	return true
}

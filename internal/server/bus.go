/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/config"
	"github.com/MarpatOG/VibeRide/internal/eventbus"
	"github.com/MarpatOG/VibeRide/internal/events"
)

// NewBroker builds the configured event bus and its close function.
func NewBroker(cfg *config.Config, logger zerolog.Logger) (events.Broker, func() error, error) {
	nodeID := eventbus.NodeID(cfg.InstanceID)

	switch cfg.EventBus {
	case config.EventBusMemory, "":
		return events.NewBus(), func() error { return nil }, nil

	case config.EventBusRedis:
		redisCfg := eventbus.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB
		bus, err := eventbus.NewRedisBus(redisCfg, nodeID, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("redis event bus: %w", err)
		}
		return bus, bus.Close, nil

	case config.EventBusNATS:
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		bus, err := eventbus.NewNATSBus(natsCfg, nodeID, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("nats event bus: %w", err)
		}
		return bus, bus.Close, nil

	case config.EventBusAMQP:
		bus, err := eventbus.NewAMQPBus(eventbus.AMQPConfig{URL: cfg.AMQPURL}, nodeID, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp event bus: %w", err)
		}
		return bus, bus.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown event bus %q", cfg.EventBus)
}

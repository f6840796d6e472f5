/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"time"

	"github.com/MarpatOG/VibeRide/internal/db"
	"github.com/MarpatOG/VibeRide/internal/events"
)

const dbMetricsInterval = 30 * time.Second

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	if s.db != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			ticker := time.NewTicker(dbMetricsInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					db.UpdateConnectionMetrics(s.db)
				}
			}
		}()
	}

	// Other nodes' mutations reach this node only through the bus, so the
	// listener keeps the shared cache honest for them.
	if s.cache.IsAvailable() && s.bus != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runCacheInvalidationListener(ctx)
		}()
	}
}

// invalidatingEvents are the event types that make cached listings stale.
var invalidatingEvents = []events.EventType{
	events.EventSessionCreated,
	events.EventSessionUpdated,
	events.EventSessionDeleted,
	events.EventScheduleReplaced,
	events.EventTrainersUpdated,
	events.EventBookingChanged,
}

type busEvent struct {
	eventType events.EventType
	payload   events.Payload
}

// runCacheInvalidationListener subscribes to mutation events and drops the
// affected cache entries.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	type subscription struct {
		eventType events.EventType
		sub       events.Subscriber
	}
	subs := make([]subscription, len(invalidatingEvents))
	for i, eventType := range invalidatingEvents {
		subs[i] = subscription{eventType: eventType, sub: s.bus.Subscribe(eventType)}
	}
	defer func() {
		for _, sub := range subs {
			s.bus.Unsubscribe(sub.eventType, sub.sub)
		}
	}()

	merged := make(chan busEvent, 32)
	for _, sub := range subs {
		go func(sub subscription) {
			for payload := range sub.sub {
				select {
				case merged <- busEvent{sub.eventType, payload}:
				case <-ctx.Done():
					return
				}
			}
		}(sub)
	}

	s.logger.Info().Msg("cache invalidation listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return
		case ev := <-merged:
			s.invalidate(ctx, ev.eventType, ev.payload)
		}
	}
}

// invalidate drops the cache entries made stale by one event.
func (s *Server) invalidate(ctx context.Context, eventType events.EventType, payload events.Payload) {
	var err error
	switch eventType {
	case events.EventSessionCreated, events.EventSessionUpdated, events.EventSessionDeleted:
		err = s.cache.InvalidateSessions(ctx)

	case events.EventScheduleReplaced:
		// A replace drops every booking along with the sessions.
		if err = s.cache.InvalidateSessions(ctx); err == nil {
			err = s.cache.InvalidateUserBookings(ctx, "")
		}

	case events.EventTrainersUpdated:
		err = s.cache.InvalidateTrainers(ctx)

	case events.EventBookingChanged:
		userID, _ := payload["user_id"].(string)
		if err = s.cache.InvalidateSessions(ctx); err == nil {
			err = s.cache.InvalidateUserBookings(ctx, userID)
		}
	}
	if err != nil {
		s.logger.Debug().Err(err).Str("event_type", string(eventType)).Msg("cache invalidation failed")
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
	"github.com/MarpatOG/VibeRide/internal/telemetry"
)

const insertBatchSize = 100

// ListSessions returns every session ordered by start.
func (s *Service) ListSessions(ctx context.Context) ([]models.Session, error) {
	if cached, ok := s.cache.GetSessionList(ctx); ok {
		return cached, nil
	}

	sessions, err := s.loadSessions(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSessionList(ctx, sessions); err != nil {
		s.logger.Debug().Err(err).Msg("session list not cached")
	}
	return sessions, nil
}

func (s *Service) loadSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	if err := s.db.WithContext(ctx).Order("starts_at ASC").Order("id ASC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "get session")
	}
	return &session, nil
}

// hallSlots loads the validator view of a hall's sessions, optionally
// leaving one session out.
func hallSlots(tx *gorm.DB, hallID, excludeID string) ([]scheduling.Session, error) {
	var rows []models.Session
	q := tx.Select("id", "hall_id", "starts_at", "duration_min").Where("hall_id = ?", hallID)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load hall sessions: %w", err)
	}
	return slotsOf(rows), nil
}

// CreateSession validates the session against its hall and stores it.
func (s *Service) CreateSession(ctx context.Context, session models.Session) (*models.Session, error) {
	session.HallID = scheduling.NormalizeHallID(session.HallID)

	existing, err := hallSlots(s.db.WithContext(ctx), session.HallID, "")
	if err != nil {
		return nil, err
	}
	if err := rejectIssue(scheduling.FindFirstHallSlotIssue(append(existing, slotOf(session)))); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, storeError("create session", err)
	}

	s.sessionsChanged(ctx)
	s.publish(events.EventSessionCreated, events.Payload{
		"session_id": session.ID,
		"hall_id":    session.HallID,
		"starts_at":  session.StartsAt,
	})
	s.logger.Info().Str("session_id", session.ID).Str("hall_id", session.HallID).Msg("session created")
	return &session, nil
}

// ReplaceSessions swaps the whole timetable for sessions in one transaction.
// Existing bookings are removed with the sessions they belong to.
func (s *Service) ReplaceSessions(ctx context.Context, sessions []models.Session) ([]models.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "schedule.replace_sessions")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{"sessions.count": len(sessions)})

	halls := make(map[string]bool)
	for i := range sessions {
		sessions[i].HallID = scheduling.NormalizeHallID(sessions[i].HallID)
		halls[sessions[i].HallID] = true
	}
	if err := rejectIssue(scheduling.FindFirstHallSlotIssue(slotsOf(sessions))); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("delete bookings: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		for hallID := range halls {
			if err := s.ensureHall(tx, hallID); err != nil {
				return err
			}
		}
		if len(sessions) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&sessions, insertBatchSize).Error; err != nil {
			return storeError("insert sessions", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.sessionsChanged(ctx)
	if err := s.cache.InvalidateUserBookings(ctx, ""); err != nil {
		s.logger.Debug().Err(err).Msg("booking cache not invalidated")
	}
	s.publish(events.EventScheduleReplaced, events.Payload{"count": len(sessions)})
	s.logger.Info().Int("count", len(sessions)).Msg("timetable replaced")

	return s.ListSessions(ctx)
}

// PatchSession merges patch into the session. The merged hall, start and
// duration are validated against the other sessions of the target hall.
func (s *Service) PatchSession(ctx context.Context, id string, patch SessionPatch) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "get session")
	}

	patch.apply(&session)

	others, err := hallSlots(s.db.WithContext(ctx), session.HallID, session.ID)
	if err != nil {
		return nil, err
	}
	if err := rejectIssue(scheduling.FindFirstHallSlotIssue(append(others, slotOf(session)))); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(&session).Error; err != nil {
		return nil, storeError("update session", err)
	}

	s.sessionsChanged(ctx)
	s.publish(events.EventSessionUpdated, events.Payload{
		"session_id": session.ID,
		"hall_id":    session.HallID,
		"starts_at":  session.StartsAt,
	})
	return &session, nil
}

func (p SessionPatch) apply(m *models.Session) {
	if p.HallID != nil {
		m.HallID = scheduling.NormalizeHallID(*p.HallID)
	}
	if p.StartsAt != nil {
		m.StartsAt = *p.StartsAt
	}
	if p.DurationMin != nil {
		m.DurationMin = *p.DurationMin
	}
	if p.Title != nil {
		m.TitleRU, m.TitleEN = p.Title.RU, p.Title.EN
	}
	if p.Subtitle != nil {
		m.SubtitleRU, m.SubtitleEN = p.Subtitle.RU, p.Subtitle.EN
	}
	if p.Description != nil {
		m.DescriptionRU, m.DescriptionEN = p.Description.RU, p.Description.EN
	}
	if p.IsThematic != nil {
		m.IsThematic = *p.IsThematic
	}
	if p.TrainerID != nil {
		m.TrainerID = optionalID(*p.TrainerID)
	}
	if p.TrainerDetached != nil {
		m.TrainerDetached = *p.TrainerDetached
	}
	if p.Capacity != nil {
		m.Capacity = *p.Capacity
	}
	if p.BookedCount != nil {
		m.BookedCount = *p.BookedCount
	}
	if p.Level != nil {
		m.Level = *p.Level
	}
}

// DeleteSession removes a session and its bookings.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("delete bookings: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Session{})
		if res.Error != nil {
			return fmt.Errorf("delete session: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.sessionsChanged(ctx)
	if err := s.cache.InvalidateUserBookings(ctx, ""); err != nil {
		s.logger.Debug().Err(err).Msg("booking cache not invalidated")
	}
	s.publish(events.EventSessionDeleted, events.Payload{"session_id": id})
	return nil
}

// ValidateSessions checks a proposed timetable without storing it.
func (s *Service) ValidateSessions(ctx context.Context, sessions []models.Session) error {
	_, span := telemetry.StartSpan(ctx, "schedule.validate_sessions")
	defer span.End()

	slots := make([]scheduling.Session, len(sessions))
	for i, m := range sessions {
		m.HallID = scheduling.NormalizeHallID(m.HallID)
		slots[i] = slotOf(m)
	}
	err := rejectIssue(scheduling.FindFirstHallSlotIssue(slots))
	telemetry.RecordError(span, err)
	return err
}

// OccupiedSlot is one occupied 30-minute slot of a hall.
type OccupiedSlot struct {
	StartsAt  string `json:"startsAt"`
	SessionID string `json:"sessionId"`
}

// Occupancy lists the occupied slots of a hall on a date, read in each
// session's own offset. Sessions crossing midnight contribute their slots
// to the following date.
func (s *Service) Occupancy(ctx context.Context, hallID, date string) ([]OccupiedSlot, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, date)
	}
	hallID = scheduling.NormalizeHallID(hallID)

	var rows []models.Session
	if err := s.db.WithContext(ctx).
		Select("id", "hall_id", "starts_at", "duration_min").
		Where("hall_id = ?", hallID).
		Order("starts_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load hall sessions: %w", err)
	}

	slots := []OccupiedSlot{}
	for _, row := range rows {
		for _, start := range scheduling.OccupiedSlotStarts(slotOf(row)) {
			if start.Format(time.DateOnly) != date {
				continue
			}
			slots = append(slots, OccupiedSlot{StartsAt: start.Format(time.RFC3339), SessionID: row.ID})
		}
	}
	return slots, nil
}

func (s *Service) sessionsChanged(ctx context.Context) {
	if err := s.cache.InvalidateSessions(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("session cache not invalidated")
	}
}

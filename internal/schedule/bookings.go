/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/models"
)

// BookingID is the deterministic id of a user's booking for a session.
func BookingID(userID, sessionID string) string {
	return fmt.Sprintf("b-%s-%s", userID, sessionID)
}

// ListBookings returns a user's active bookings, newest first.
func (s *Service) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if cached, ok := s.cache.GetUserBookings(ctx, userID); ok {
		return cached, nil
	}

	var bookings []models.Booking
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.BookingBooked).
		Order("booked_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if err := s.cache.SetUserBookings(ctx, userID, bookings); err != nil {
		s.logger.Debug().Err(err).Msg("bookings not cached")
	}
	return bookings, nil
}

// BookRequest asks for a seat in a session.
type BookRequest struct {
	UserID     string `json:"userId" validate:"required,max=64"`
	SessionID  string `json:"sessionId" validate:"required,max=64"`
	BikeNumber *int   `json:"bikeNumber" validate:"omitempty,gte=1"`
}

// Book reserves a seat. A canceled booking of the same user and session is
// reactivated; created reports whether a new row was inserted.
func (s *Service) Book(ctx context.Context, req BookRequest) (booking *models.Booking, created bool, err error) {
	if req.UserID == "" || req.SessionID == "" {
		return nil, false, fmt.Errorf("%w: userId and sessionId are required", ErrInvalidInput)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, "id = ?", req.SessionID).Error; err != nil {
			return notFound(err, "get session")
		}

		var existing models.Booking
		err := tx.Where("user_id = ? AND session_id = ?", req.UserID, req.SessionID).First(&existing).Error
		switch {
		case err == nil && existing.Status == models.BookingBooked:
			return ErrAlreadyBooked
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("get booking: %w", err)
		}

		if session.Capacity > 0 && session.BookedCount >= session.Capacity {
			return ErrSessionFull
		}

		now := s.now().UTC()
		if err == nil {
			existing.Status = models.BookingBooked
			existing.BookedAt = now
			existing.CanceledAt = nil
			if req.BikeNumber != nil {
				existing.BikeNumber = req.BikeNumber
			}
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("reactivate booking: %w", err)
			}
			booking = &existing
		} else {
			booking = &models.Booking{
				ID:         BookingID(req.UserID, req.SessionID),
				UserID:     req.UserID,
				SessionID:  req.SessionID,
				BikeNumber: req.BikeNumber,
				Status:     models.BookingBooked,
				BookedAt:   now,
			}
			if err := tx.Create(booking).Error; err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
			created = true
		}

		return tx.Model(&models.Session{}).
			Where("id = ?", req.SessionID).
			UpdateColumn("booked_count", gorm.Expr("booked_count + 1")).Error
	})
	if err != nil {
		return nil, false, err
	}

	s.bookingsChanged(ctx, req.UserID, req.SessionID, models.BookingBooked)
	return booking, created, nil
}

// CancelBooking releases a user's active seat.
func (s *Service) CancelBooking(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return fmt.Errorf("%w: userId and sessionId are required", ErrInvalidInput)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Booking
		if err := tx.Where("user_id = ? AND session_id = ?", userID, sessionID).First(&existing).Error; err != nil {
			return notFound(err, "get booking")
		}
		if existing.Status != models.BookingBooked {
			return ErrNotFound
		}

		now := s.now().UTC()
		existing.Status = models.BookingCanceled
		existing.CanceledAt = &now
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		return tx.Model(&models.Session{}).
			Where("id = ? AND booked_count > 0", sessionID).
			UpdateColumn("booked_count", gorm.Expr("booked_count - 1")).Error
	})
	if err != nil {
		return err
	}

	s.bookingsChanged(ctx, userID, sessionID, models.BookingCanceled)
	return nil
}

func (s *Service) bookingsChanged(ctx context.Context, userID, sessionID string, status models.BookingStatus) {
	if err := s.cache.InvalidateUserBookings(ctx, userID); err != nil {
		s.logger.Debug().Err(err).Msg("booking cache not invalidated")
	}
	s.sessionsChanged(ctx)
	s.publish(events.EventBookingChanged, events.Payload{
		"user_id":    userID,
		"session_id": sessionID,
		"status":     string(status),
	})
}

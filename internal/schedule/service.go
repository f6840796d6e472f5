/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule is the studio timetable service: sessions, trainers,
// bookings, generation, timetable import and exports.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/MarpatOG/VibeRide/internal/cache"
	"github.com/MarpatOG/VibeRide/internal/config"
	"github.com/MarpatOG/VibeRide/internal/db"
	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
	"github.com/MarpatOG/VibeRide/internal/storage"
	"github.com/MarpatOG/VibeRide/internal/telemetry"
)

var (
	// ErrNotFound indicates the session, trainer or booking does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSlot indicates the store rejected a second session for the
	// same hall and start time.
	ErrDuplicateSlot = errors.New("a session already exists for this hall and start time")

	// ErrAlreadyBooked indicates the user already holds an active booking.
	ErrAlreadyBooked = errors.New("already booked")

	// ErrSessionFull indicates every seat of the session is taken.
	ErrSessionFull = errors.New("session is full")

	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoObjectStore indicates publishing was requested without a store.
	ErrNoObjectStore = errors.New("object store not configured")
)

// IssueError reports a hall slot validation failure.
type IssueError struct {
	Issue *scheduling.Issue
}

func (e *IssueError) Error() string {
	return "slot validation failed: " + e.Issue.String()
}

// Service implements the timetable operations on top of the database.
type Service struct {
	db      *gorm.DB
	catalog *config.Catalog
	cache   *cache.Cache
	bus     events.Publisher
	store   storage.ObjectStore
	logger  zerolog.Logger

	now func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCache enables the read cache for listings.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher sets where mutation events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.bus = p }
}

// WithObjectStore sets the destination of published exports.
func WithObjectStore(store storage.ObjectStore) Option {
	return func(s *Service) { s.store = store }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the schedule service.
func NewService(database *gorm.DB, catalog *config.Catalog, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		db:      database,
		catalog: catalog,
		logger:  logger.With().Str("component", "schedule").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the studio catalog the service was built with.
func (s *Service) Catalog() *config.Catalog {
	return s.catalog
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}

// rejectIssue converts a validator result to an error and counts it.
func rejectIssue(issue *scheduling.Issue) error {
	if issue == nil {
		return nil
	}
	telemetry.SlotValidationIssuesTotal.WithLabelValues(string(issue.Type)).Inc()
	return &IssueError{Issue: issue}
}

// storeError maps constraint violations to ErrDuplicateSlot.
func storeError(op string, err error) error {
	if db.IsUniqueViolation(err) || db.IsOverlapViolation(err) {
		return ErrDuplicateSlot
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// SeedCatalog upserts the catalog halls and trainer profiles.
func (s *Service) SeedCatalog(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, h := range s.catalog.Halls {
			hall := models.Hall{ID: h.ID, Name: h.Name}
			if err := tx.Save(&hall).Error; err != nil {
				return fmt.Errorf("seed hall %s: %w", h.ID, err)
			}
		}
		for _, p := range s.catalog.Trainers {
			trainer := p.Model()
			if err := tx.Save(&trainer).Error; err != nil {
				return fmt.Errorf("seed trainer %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// ListHalls returns all halls ordered by id.
func (s *Service) ListHalls(ctx context.Context) ([]models.Hall, error) {
	var halls []models.Hall
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&halls).Error; err != nil {
		return nil, fmt.Errorf("list halls: %w", err)
	}
	return halls, nil
}

// ensureHall creates the hall row when it is missing, named from the catalog.
func (s *Service) ensureHall(tx *gorm.DB, hallID string) error {
	var count int64
	if err := tx.Model(&models.Hall{}).Where("id = ?", hallID).Count(&count).Error; err != nil {
		return fmt.Errorf("check hall: %w", err)
	}
	if count > 0 {
		return nil
	}
	name := hallID
	for _, h := range s.catalog.Halls {
		if h.ID == hallID {
			name = h.Name
			break
		}
	}
	if err := tx.Create(&models.Hall{ID: hallID, Name: name}).Error; err != nil {
		return fmt.Errorf("create hall %s: %w", hallID, err)
	}
	return nil
}

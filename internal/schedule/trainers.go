/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MarpatOG/VibeRide/internal/db"
	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/models"
)

// ListTrainers returns trainers ordered by name.
func (s *Service) ListTrainers(ctx context.Context) ([]models.Trainer, error) {
	if cached, ok := s.cache.GetTrainerList(ctx); ok {
		return cached, nil
	}

	var trainers []models.Trainer
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&trainers).Error; err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	if err := s.cache.SetTrainerList(ctx, trainers); err != nil {
		s.logger.Debug().Err(err).Msg("trainer list not cached")
	}
	return trainers, nil
}

func prepareTrainer(t *models.Trainer) error {
	t.Name = strings.TrimSpace(t.Name)
	t.LastName = strings.TrimSpace(t.LastName)
	if t.Name == "" {
		return fmt.Errorf("%w: trainer name is required", ErrInvalidInput)
	}
	if t.ID == "" {
		t.ID = "t-" + uuid.NewString()[:8]
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return nil
}

// CreateTrainer stores a new trainer. A missing id is generated.
func (s *Service) CreateTrainer(ctx context.Context, trainer models.Trainer) (*models.Trainer, error) {
	if err := prepareTrainer(&trainer); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&trainer).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: trainer %s already exists", ErrInvalidInput, trainer.ID)
		}
		return nil, fmt.Errorf("create trainer: %w", err)
	}
	s.trainersChanged(ctx, trainer.ID)
	return &trainer, nil
}

// ReplaceTrainers swaps the trainer list. Sessions whose trainer is gone are
// detached.
func (s *Service) ReplaceTrainers(ctx context.Context, trainers []models.Trainer) ([]models.Trainer, error) {
	ids := make([]string, 0, len(trainers))
	seen := make(map[string]bool, len(trainers))
	for i := range trainers {
		if err := prepareTrainer(&trainers[i]); err != nil {
			return nil, err
		}
		if seen[trainers[i].ID] {
			return nil, fmt.Errorf("%w: duplicate trainer %s", ErrInvalidInput, trainers[i].ID)
		}
		seen[trainers[i].ID] = true
		ids = append(ids, trainers[i].ID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detach := tx.Model(&models.Session{}).Where("trainer_id IS NOT NULL")
		if len(ids) > 0 {
			detach = detach.Where("trainer_id NOT IN ?", ids)
		}
		if err := detach.Updates(map[string]any{"trainer_id": nil, "trainer_detached": true}).Error; err != nil {
			return fmt.Errorf("detach sessions: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.Trainer{}).Error; err != nil {
			return fmt.Errorf("delete trainers: %w", err)
		}
		if len(trainers) == 0 {
			return nil
		}
		if err := tx.Create(&trainers).Error; err != nil {
			return fmt.Errorf("insert trainers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.trainersChanged(ctx, "")
	return s.ListTrainers(ctx)
}

// UpdateTrainer overwrites a trainer's profile fields.
func (s *Service) UpdateTrainer(ctx context.Context, id string, update models.Trainer) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := s.db.WithContext(ctx).First(&trainer, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "get trainer")
	}

	update.ID = id
	if err := prepareTrainer(&update); err != nil {
		return nil, err
	}
	trainer.Name = update.Name
	trainer.LastName = update.LastName
	trainer.PhotoURL = update.PhotoURL
	trainer.Tags = update.Tags
	trainer.BioRU = update.BioRU
	trainer.BioEN = update.BioEN

	if err := s.db.WithContext(ctx).Save(&trainer).Error; err != nil {
		return nil, fmt.Errorf("update trainer: %w", err)
	}
	s.trainersChanged(ctx, id)
	return &trainer, nil
}

// DeleteTrainer removes a trainer and detaches their sessions.
func (s *Service) DeleteTrainer(ctx context.Context, id string) error {
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("trainer_id = ?", id).
			Updates(map[string]any{"trainer_id": nil, "trainer_detached": true})
		if res.Error != nil {
			return fmt.Errorf("detach sessions: %w", res.Error)
		}
		detached = res.RowsAffected

		del := tx.Where("id = ?", id).Delete(&models.Trainer{})
		if del.Error != nil {
			return fmt.Errorf("delete trainer: %w", del.Error)
		}
		if del.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("trainer_id", id).Int64("detached_sessions", detached).Msg("trainer deleted")
	s.trainersChanged(ctx, id)
	return nil
}

func (s *Service) trainersChanged(ctx context.Context, trainerID string) {
	if err := s.cache.InvalidateTrainers(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("trainer cache not invalidated")
	}
	payload := events.Payload{}
	if trainerID != "" {
		payload["trainer_id"] = trainerID
	}
	s.publish(events.EventTrainersUpdated, payload)
}

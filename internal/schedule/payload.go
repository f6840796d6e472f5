/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"time"

	"github.com/MarpatOG/VibeRide/internal/generator"
	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
)

// SessionPayload is the public JSON form of a session.
type SessionPayload struct {
	ID              string              `json:"id" validate:"required,max=64"`
	HallID          string              `json:"hallId,omitempty" validate:"max=64"`
	StartsAt        string              `json:"startsAt"`
	DurationMin     int                 `json:"durationMin"`
	Title           models.Localized    `json:"title"`
	Subtitle        models.Localized    `json:"subtitle"`
	Description     models.Localized    `json:"description"`
	IsThematic      bool                `json:"isThematic"`
	TrainerID       string              `json:"trainerId"`
	TrainerDetached bool                `json:"trainerDetached"`
	Capacity        int                 `json:"capacity" validate:"gte=0"`
	BookedCount     int                 `json:"bookedCount" validate:"gte=0"`
	Level           models.SessionLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// ToSessionPayload converts a stored session.
func ToSessionPayload(m models.Session) SessionPayload {
	trainerID := ""
	if m.TrainerID != nil {
		trainerID = *m.TrainerID
	}
	return SessionPayload{
		ID:              m.ID,
		HallID:          m.HallID,
		StartsAt:        m.StartsAt,
		DurationMin:     m.DurationMin,
		Title:           m.Title(),
		Subtitle:        m.Subtitle(),
		Description:     m.Description(),
		IsThematic:      m.IsThematic,
		TrainerID:       trainerID,
		TrainerDetached: m.TrainerDetached,
		Capacity:        m.Capacity,
		BookedCount:     m.BookedCount,
		Level:           m.Level,
	}
}

// ToSessionPayloads converts a list of stored sessions.
func ToSessionPayloads(items []models.Session) []SessionPayload {
	out := make([]SessionPayload, len(items))
	for i, m := range items {
		out[i] = ToSessionPayload(m)
	}
	return out
}

// Model converts the payload to its row. The hall is normalized and an empty
// level becomes beginner.
func (p SessionPayload) Model() models.Session {
	level := p.Level
	if level == "" {
		level = models.LevelBeginner
	}
	return models.Session{
		ID:              p.ID,
		HallID:          scheduling.NormalizeHallID(p.HallID),
		StartsAt:        p.StartsAt,
		DurationMin:     p.DurationMin,
		TitleRU:         p.Title.RU,
		TitleEN:         p.Title.EN,
		SubtitleRU:      p.Subtitle.RU,
		SubtitleEN:      p.Subtitle.EN,
		DescriptionRU:   p.Description.RU,
		DescriptionEN:   p.Description.EN,
		IsThematic:      p.IsThematic,
		TrainerID:       optionalID(p.TrainerID),
		TrainerDetached: p.TrainerDetached,
		Capacity:        p.Capacity,
		BookedCount:     p.BookedCount,
		Level:           level,
	}
}

// FromGenerated converts a generator session to its row.
func FromGenerated(g generator.Session) models.Session {
	return models.Session{
		ID:            g.ID,
		HallID:        scheduling.NormalizeHallID(g.HallID),
		StartsAt:      g.StartsAt,
		DurationMin:   g.DurationMin,
		TitleRU:       g.Title.RU,
		TitleEN:       g.Title.EN,
		SubtitleRU:    g.Subtitle.RU,
		SubtitleEN:    g.Subtitle.EN,
		DescriptionRU: g.Description.RU,
		DescriptionEN: g.Description.EN,
		IsThematic:    g.IsThematic,
		TrainerID:     optionalID(g.TrainerID),
		Capacity:      g.Capacity,
		BookedCount:   g.BookedCount,
		Level:         g.Level,
	}
}

// SessionPatch holds the fields of a partial session update. Nil fields are
// left untouched; an empty TrainerID clears the trainer.
type SessionPatch struct {
	HallID          *string              `json:"hallId"`
	StartsAt        *string              `json:"startsAt"`
	DurationMin     *int                 `json:"durationMin"`
	Title           *models.Localized    `json:"title"`
	Subtitle        *models.Localized    `json:"subtitle"`
	Description     *models.Localized    `json:"description"`
	IsThematic      *bool                `json:"isThematic"`
	TrainerID       *string              `json:"trainerId"`
	TrainerDetached *bool                `json:"trainerDetached"`
	Capacity        *int                 `json:"capacity" validate:"omitempty,gte=0"`
	BookedCount     *int                 `json:"bookedCount" validate:"omitempty,gte=0"`
	Level           *models.SessionLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// TrainerPayload is the public JSON form of a trainer.
type TrainerPayload struct {
	ID       string           `json:"id" validate:"max=64"`
	Name     string           `json:"name" validate:"required,max=255"`
	LastName string           `json:"lastName" validate:"max=255"`
	PhotoURL string           `json:"photoUrl" validate:"omitempty,max=512"`
	Tags     []string         `json:"tags"`
	Bio      models.Localized `json:"bio"`
}

// ToTrainerPayload converts a stored trainer.
func ToTrainerPayload(m models.Trainer) TrainerPayload {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return TrainerPayload{
		ID:       m.ID,
		Name:     m.Name,
		LastName: m.LastName,
		PhotoURL: m.PhotoURL,
		Tags:     tags,
		Bio:      models.Localized{RU: m.BioRU, EN: m.BioEN},
	}
}

// ToTrainerPayloads converts a list of stored trainers.
func ToTrainerPayloads(items []models.Trainer) []TrainerPayload {
	out := make([]TrainerPayload, len(items))
	for i, m := range items {
		out[i] = ToTrainerPayload(m)
	}
	return out
}

// Model converts the payload to its row.
func (p TrainerPayload) Model() models.Trainer {
	return models.Trainer{
		ID:       p.ID,
		Name:     p.Name,
		LastName: p.LastName,
		PhotoURL: p.PhotoURL,
		Tags:     p.Tags,
		BioRU:    p.Bio.RU,
		BioEN:    p.Bio.EN,
	}
}

// BookingPayload is the public JSON form of an active booking.
type BookingPayload struct {
	SessionID  string    `json:"sessionId"`
	BookedAt   time.Time `json:"bookedAt"`
	BikeNumber *int      `json:"bikeNumber,omitempty"`
}

// ToBookingPayload converts a stored booking.
func ToBookingPayload(m models.Booking) BookingPayload {
	return BookingPayload{SessionID: m.SessionID, BookedAt: m.BookedAt, BikeNumber: m.BikeNumber}
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func slotOf(m models.Session) scheduling.Session {
	return scheduling.Session{ID: m.ID, HallID: m.HallID, StartsAt: m.StartsAt, DurationMin: m.DurationMin}
}

func slotsOf(items []models.Session) []scheduling.Session {
	out := make([]scheduling.Session, len(items))
	for i, m := range items {
		out[i] = slotOf(m)
	}
	return out
}

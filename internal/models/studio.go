/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Localized holds a text in the studio's two languages.
type Localized struct {
	RU string `json:"ru" yaml:"ru"`
	EN string `json:"en" yaml:"en"`
}

// SessionLevel is the difficulty of a workout.
type SessionLevel string

const (
	LevelBeginner     SessionLevel = "beginner"
	LevelIntermediate SessionLevel = "intermediate"
	LevelAdvanced     SessionLevel = "advanced"
)

// Valid reports whether the level is known.
func (l SessionLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Hall is a room whose sessions may not overlap.
type Hall struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (Hall) TableName() string {
	return "halls"
}

// Trainer is a public trainer profile.
type Trainer struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;index:idx_trainers_name" json:"name"`
	LastName  string    `gorm:"type:varchar(255)" json:"last_name"`
	PhotoURL  string    `gorm:"type:varchar(512)" json:"photo_url"`
	Tags      []string  `gorm:"type:text;serializer:json" json:"tags"`
	BioRU     string    `gorm:"type:text" json:"bio_ru"`
	BioEN     string    `gorm:"type:text" json:"bio_en"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Trainer) TableName() string {
	return "trainers"
}

// Session is a bookable class in a hall. StartsAt keeps the fixed-offset
// string form (2026-02-09T10:00:00+03:00).
type Session struct {
	ID              string       `gorm:"type:varchar(64);primaryKey" json:"id"`
	HallID          string       `gorm:"type:varchar(64);not null;uniqueIndex:idx_sessions_hall_start,priority:1" json:"hall_id"`
	StartsAt        string       `gorm:"type:varchar(32);not null;uniqueIndex:idx_sessions_hall_start,priority:2;index:idx_sessions_starts_at" json:"starts_at"`
	DurationMin     int          `gorm:"not null" json:"duration_min"`
	TitleRU         string       `gorm:"type:varchar(255)" json:"title_ru"`
	TitleEN         string       `gorm:"type:varchar(255)" json:"title_en"`
	SubtitleRU      string       `gorm:"type:varchar(255)" json:"subtitle_ru"`
	SubtitleEN      string       `gorm:"type:varchar(255)" json:"subtitle_en"`
	DescriptionRU   string       `gorm:"type:text" json:"description_ru"`
	DescriptionEN   string       `gorm:"type:text" json:"description_en"`
	IsThematic      bool         `gorm:"not null;default:false" json:"is_thematic"`
	TrainerID       *string      `gorm:"type:varchar(64);index:idx_sessions_trainer" json:"trainer_id,omitempty"`
	TrainerDetached bool         `gorm:"not null;default:false" json:"trainer_detached"`
	Capacity        int          `gorm:"not null" json:"capacity"`
	BookedCount     int          `gorm:"not null;default:0" json:"booked_count"`
	Level           SessionLevel `gorm:"type:varchar(16);not null" json:"level"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Session) TableName() string {
	return "sessions"
}

// Title returns the localized title.
func (s Session) Title() Localized {
	return Localized{RU: s.TitleRU, EN: s.TitleEN}
}

// Subtitle returns the localized subtitle.
func (s Session) Subtitle() Localized {
	return Localized{RU: s.SubtitleRU, EN: s.SubtitleEN}
}

// Description returns the localized description.
func (s Session) Description() Localized {
	return Localized{RU: s.DescriptionRU, EN: s.DescriptionEN}
}

// BookingStatus tracks whether a seat is held.
type BookingStatus string

const (
	BookingBooked   BookingStatus = "booked"
	BookingCanceled BookingStatus = "canceled"
)

// Booking is a client's seat in a session.
type Booking struct {
	ID         string        `gorm:"type:varchar(160);primaryKey" json:"id"`
	UserID     string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_bookings_user_session,priority:1" json:"user_id"`
	SessionID  string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_bookings_user_session,priority:2;index:idx_bookings_session" json:"session_id"`
	BikeNumber *int          `json:"bike_number,omitempty"`
	Status     BookingStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	BookedAt   time.Time     `gorm:"not null" json:"booked_at"`
	CanceledAt *time.Time    `json:"canceled_at,omitempty"`
}

// TableName returns the table name for GORM.
func (Booking) TableName() string {
	return "bookings"
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduling checks hall occupancy of studio sessions. Time is
// quantized into fixed slots and a session occupies a whole number of them.
package scheduling

import (
	"time"
)

const (
	// SlotDurationMin is the size of one occupancy slot.
	SlotDurationMin = 30
	// MaxSessionDurationMin is the longest bookable session.
	MaxSessionDurationMin = 120
	// DefaultHallID is used when a session carries no hall.
	DefaultHallID = "h-main"
)

// SlotDuration is SlotDurationMin as a time.Duration.
const SlotDuration = SlotDurationMin * time.Minute

// Session is the minimal shape the validator needs.
type Session struct {
	ID          string
	HallID      string
	StartsAt    string
	DurationMin int
}

// Range is the half-open interval [Start, End) a session occupies.
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open ranges intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// RoundDuration rounds a duration up to the next slot bucket. Durations
// outside [1, MaxSessionDurationMin] round to 0.
func RoundDuration(durationMin int) int {
	if durationMin < 1 || durationMin > MaxSessionDurationMin {
		return 0
	}
	switch {
	case durationMin <= 30:
		return 30
	case durationMin <= 60:
		return 60
	case durationMin <= 90:
		return 90
	default:
		return 120
	}
}

// SlotSpan returns how many slots a duration occupies, 0 when invalid.
func SlotSpan(durationMin int) int {
	return RoundDuration(durationMin) / SlotDurationMin
}

// startsAtLayouts are the accepted start formats; seconds may be omitted.
var startsAtLayouts = []string{time.RFC3339, "2006-01-02T15:04Z07:00"}

// ParseStartsAt parses a stored start timestamp. The offset is kept as
// written; no zone conversion happens.
func ParseStartsAt(startsAt string) (time.Time, bool) {
	for _, layout := range startsAtLayouts {
		if t, err := time.Parse(layout, startsAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SessionRange computes the occupied range of a session. ok is false when the
// duration is out of range or the start does not parse.
func SessionRange(s Session) (Range, bool) {
	span := SlotSpan(s.DurationMin)
	if span == 0 {
		return Range{}, false
	}
	start, ok := ParseStartsAt(s.StartsAt)
	if !ok {
		return Range{}, false
	}
	return Range{Start: start, End: start.Add(time.Duration(span) * SlotDuration)}, true
}

// OccupiedSlotStarts lists the start of every slot the session occupies.
func OccupiedSlotStarts(s Session) []time.Time {
	r, ok := SessionRange(s)
	if !ok {
		return nil
	}
	starts := make([]time.Time, 0, SlotSpan(s.DurationMin))
	for t := r.Start; t.Before(r.End); t = t.Add(SlotDuration) {
		starts = append(starts, t)
	}
	return starts
}

// NormalizeHallID maps an empty hall id to DefaultHallID.
func NormalizeHallID(hallID string) string {
	if hallID == "" {
		return DefaultHallID
	}
	return hallID
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// IssueType classifies a placement problem.
type IssueType string

const (
	IssueInvalidDuration IssueType = "invalid_duration"
	IssueInvalidStart    IssueType = "invalid_start"
	IssueSlotConflict    IssueType = "slot_conflict"
)

// Issue describes the first problem found in a hall's sessions. Only the
// fields relevant to Type are set.
type Issue struct {
	Type      IssueType
	SessionID string

	// invalid_duration
	DurationMin int

	// invalid_start
	StartsAt string

	// slot_conflict
	HallID               string
	ConflictingSessionID string
	SlotStartAt          string
	SlotStart            time.Time
}

func (i *Issue) String() string {
	switch i.Type {
	case IssueInvalidDuration:
		return fmt.Sprintf("session %s: invalid duration %d", i.SessionID, i.DurationMin)
	case IssueInvalidStart:
		return fmt.Sprintf("session %s: invalid start %q", i.SessionID, i.StartsAt)
	case IssueSlotConflict:
		return fmt.Sprintf("session %s conflicts with %s in hall %s at %s", i.SessionID, i.ConflictingSessionID, i.HallID, i.SlotStartAt)
	}
	return string(i.Type)
}

// rangeIssue returns the validity issue of a session that has no range.
func rangeIssue(s Session) *Issue {
	if SlotSpan(s.DurationMin) == 0 {
		return &Issue{Type: IssueInvalidDuration, SessionID: s.ID, DurationMin: s.DurationMin}
	}
	return &Issue{Type: IssueInvalidStart, SessionID: s.ID, StartsAt: s.StartsAt}
}

// FindPlacementIssue checks one candidate against other sessions. Sessions in
// other halls, with the candidate's id, or without a valid range are ignored.
func FindPlacementIssue(candidate Session, existing []Session) *Issue {
	current, ok := SessionRange(candidate)
	if !ok {
		return rangeIssue(candidate)
	}

	for _, other := range existing {
		if other.ID == candidate.ID || other.HallID != candidate.HallID {
			continue
		}
		otherRange, ok := SessionRange(other)
		if !ok {
			continue
		}
		if !current.Overlaps(otherRange) {
			continue
		}

		slotStartAt := other.StartsAt
		if !current.Start.Before(otherRange.Start) {
			slotStartAt = candidate.StartsAt
		}
		return &Issue{
			Type:                 IssueSlotConflict,
			HallID:               candidate.HallID,
			SessionID:            candidate.ID,
			ConflictingSessionID: other.ID,
			SlotStartAt:          slotStartAt,
			SlotStart:            laterOf(current.Start, otherRange.Start),
		}
	}
	return nil
}

type placed struct {
	session Session
	rng     Range
}

// FindFirstHallSlotIssue validates a whole batch. Invalid durations and starts
// are reported before any pairwise check. Conflicts are searched per hall in
// start order and the first one found is returned.
func FindFirstHallSlotIssue(sessions []Session) *Issue {
	ordered := make([]Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return strings.Compare(ordered[i].StartsAt, ordered[j].StartsAt) < 0
	})

	var hallOrder []string
	byHall := make(map[string][]placed)
	for _, s := range ordered {
		r, ok := SessionRange(s)
		if !ok {
			return rangeIssue(s)
		}
		if _, seen := byHall[s.HallID]; !seen {
			hallOrder = append(hallOrder, s.HallID)
		}
		byHall[s.HallID] = append(byHall[s.HallID], placed{session: s, rng: r})
	}

	for _, hallID := range hallOrder {
		items := byHall[hallID]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].rng.Start.Before(items[j].rng.Start)
		})

		for i := range items {
			current := items[i]
			for j := i + 1; j < len(items); j++ {
				next := items[j]
				// Sorted by start: nothing after this can reach current.
				if !next.rng.Start.Before(current.rng.End) {
					break
				}
				if next.session.ID == current.session.ID {
					continue
				}
				return &Issue{
					Type:                 IssueSlotConflict,
					HallID:               hallID,
					SessionID:            next.session.ID,
					ConflictingSessionID: current.session.ID,
					SlotStartAt:          next.session.StartsAt,
					SlotStart:            laterOf(current.rng.Start, next.rng.Start),
				}
			}
		}
	}
	return nil
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"testing"
)

func session(id, hall, startsAt string, duration int) Session {
	return Session{ID: id, HallID: hall, StartsAt: startsAt, DurationMin: duration}
}

func TestFindFirstHallSlotIssue(t *testing.T) {
	tests := []struct {
		name            string
		sessions        []Session
		wantType        IssueType
		wantSession     string
		wantConflicting string
		wantSlotStartAt string
	}{
		{
			name: "overlap in same hall",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
				session("B", "h1", "2026-02-09T10:30:00+03:00", 30),
			},
			wantType:        IssueSlotConflict,
			wantSession:     "B",
			wantConflicting: "A",
			wantSlotStartAt: "2026-02-09T10:30:00+03:00",
		},
		{
			name: "adjacent sessions",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
				session("B", "h1", "2026-02-09T11:00:00+03:00", 30),
			},
		},
		{
			name: "start without seconds",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00+03:00", 60),
				session("B", "h1", "2026-02-09T10:30:00+03:00", 30),
			},
			wantType:        IssueSlotConflict,
			wantSession:     "B",
			wantConflicting: "A",
			wantSlotStartAt: "2026-02-09T10:30:00+03:00",
		},
		{
			name: "rounding makes adjacent overlap",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 75),
				session("B", "h1", "2026-02-09T11:00:00+03:00", 60),
			},
			wantType:        IssueSlotConflict,
			wantSession:     "B",
			wantConflicting: "A",
			wantSlotStartAt: "2026-02-09T11:00:00+03:00",
		},
		{
			name: "invalid duration wins over conflict",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
				session("B", "h1", "2026-02-09T10:30:00+03:00", 30),
				session("C", "h1", "2026-02-09T12:00:00+03:00", 125),
			},
			wantType:    IssueInvalidDuration,
			wantSession: "C",
		},
		{
			name: "invalid start",
			sessions: []Session{
				session("A", "h1", "tomorrow", 60),
			},
			wantType:    IssueInvalidStart,
			wantSession: "A",
		},
		{
			name: "different halls",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
				session("B", "h2", "2026-02-09T10:00:00+03:00", 60),
			},
		},
		{
			name: "same id is not a conflict",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
				session("A", "h1", "2026-02-09T10:30:00+03:00", 60),
			},
		},
		{
			name: "unsorted input with long session",
			sessions: []Session{
				session("late", "h1", "2026-02-09T11:00:00+03:00", 30),
				session("mid", "h1", "2026-02-09T10:30:00+03:00", 15),
				session("long", "h1", "2026-02-09T09:00:00+03:00", 120),
			},
			wantType:        IssueSlotConflict,
			wantSession:     "mid",
			wantConflicting: "long",
			wantSlotStartAt: "2026-02-09T10:30:00+03:00",
		},
		{
			name: "offsets compared as instants",
			sessions: []Session{
				session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
				session("B", "h1", "2026-02-09T07:30:00Z", 30),
			},
			wantType:        IssueSlotConflict,
			wantSession:     "B",
			wantConflicting: "A",
			wantSlotStartAt: "2026-02-09T07:30:00Z",
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := FindFirstHallSlotIssue(tt.sessions)
			if tt.wantType == "" {
				if issue != nil {
					t.Fatalf("FindFirstHallSlotIssue() = %v, want nil", issue)
				}
				return
			}
			if issue == nil {
				t.Fatalf("FindFirstHallSlotIssue() = nil, want %s", tt.wantType)
			}
			if issue.Type != tt.wantType {
				t.Fatalf("Type = %s, want %s", issue.Type, tt.wantType)
			}
			if issue.SessionID != tt.wantSession {
				t.Errorf("SessionID = %s, want %s", issue.SessionID, tt.wantSession)
			}
			if issue.ConflictingSessionID != tt.wantConflicting {
				t.Errorf("ConflictingSessionID = %s, want %s", issue.ConflictingSessionID, tt.wantConflicting)
			}
			if issue.SlotStartAt != tt.wantSlotStartAt {
				t.Errorf("SlotStartAt = %s, want %s", issue.SlotStartAt, tt.wantSlotStartAt)
			}
		})
	}
}

func TestFindFirstHallSlotIssueDoesNotReorderInput(t *testing.T) {
	in := []Session{
		session("B", "h1", "2026-02-09T11:00:00+03:00", 30),
		session("A", "h1", "2026-02-09T10:00:00+03:00", 30),
	}
	_ = FindFirstHallSlotIssue(in)
	if in[0].ID != "B" || in[1].ID != "A" {
		t.Fatalf("input reordered: %v", in)
	}
}

func TestFindFirstHallSlotIssueReportsSlotStart(t *testing.T) {
	issue := FindFirstHallSlotIssue([]Session{
		session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
		session("B", "h1", "2026-02-09T10:30:00+03:00", 30),
	})
	if issue == nil {
		t.Fatal("expected conflict")
	}
	want, _ := ParseStartsAt("2026-02-09T10:30:00+03:00")
	if !issue.SlotStart.Equal(want) {
		t.Fatalf("SlotStart = %v, want %v", issue.SlotStart, want)
	}
	if issue.HallID != "h1" {
		t.Fatalf("HallID = %s, want h1", issue.HallID)
	}
}

func TestFindPlacementIssue(t *testing.T) {
	a := session("A", "h1", "2026-02-09T10:00:00+03:00", 60)
	b := session("B", "h1", "2026-02-09T10:30:00+03:00", 30)

	issue := FindPlacementIssue(a, []Session{b})
	if issue == nil || issue.Type != IssueSlotConflict {
		t.Fatalf("FindPlacementIssue(A, [B]) = %v, want conflict", issue)
	}
	if issue.SessionID != "A" || issue.ConflictingSessionID != "B" {
		t.Fatalf("ids = %s/%s, want A/B", issue.SessionID, issue.ConflictingSessionID)
	}
	if issue.SlotStartAt != b.StartsAt {
		t.Fatalf("SlotStartAt = %s, want later start %s", issue.SlotStartAt, b.StartsAt)
	}

	reverse := FindPlacementIssue(b, []Session{a})
	if reverse == nil || reverse.Type != IssueSlotConflict {
		t.Fatalf("FindPlacementIssue(B, [A]) = %v, want conflict", reverse)
	}
	if reverse.SlotStartAt != b.StartsAt {
		t.Fatalf("reverse SlotStartAt = %s, want %s", reverse.SlotStartAt, b.StartsAt)
	}
}

func TestFindPlacementIssueSkips(t *testing.T) {
	candidate := session("A", "h1", "2026-02-09T10:00:00+03:00", 60)
	existing := []Session{
		session("A", "h1", "2026-02-09T10:00:00+03:00", 60),
		session("X", "h2", "2026-02-09T10:00:00+03:00", 60),
		session("Y", "h1", "garbage", 60),
		session("Z", "h1", "2026-02-09T10:00:00+03:00", 0),
		session("W", "h1", "2026-02-09T11:00:00+03:00", 30),
	}
	if issue := FindPlacementIssue(candidate, existing); issue != nil {
		t.Fatalf("FindPlacementIssue() = %v, want nil", issue)
	}
}

func TestFindPlacementIssueValidity(t *testing.T) {
	issue := FindPlacementIssue(session("A", "h1", "garbage", 0), nil)
	if issue == nil || issue.Type != IssueInvalidDuration || issue.DurationMin != 0 {
		t.Fatalf("issue = %v, want invalid_duration", issue)
	}

	issue = FindPlacementIssue(session("A", "h1", "garbage", 30), nil)
	if issue == nil || issue.Type != IssueInvalidStart || issue.StartsAt != "garbage" {
		t.Fatalf("issue = %v, want invalid_start", issue)
	}
}

func TestConflictSymmetry(t *testing.T) {
	starts := []string{
		"2026-02-09T09:00:00+03:00",
		"2026-02-09T09:30:00+03:00",
		"2026-02-09T10:00:00+03:00",
		"2026-02-09T11:15:00+03:00",
	}
	durations := []int{15, 30, 45, 60, 90, 120}

	for _, sa := range starts {
		for _, sb := range starts {
			for _, da := range durations {
				for _, db := range durations {
					a := session("A", "h1", sa, da)
					b := session("B", "h1", sb, db)
					ab := FindPlacementIssue(a, []Session{b}) != nil
					ba := FindPlacementIssue(b, []Session{a}) != nil
					if ab != ba {
						t.Fatalf("asymmetric result for %v / %v: %v vs %v", a, b, ab, ba)
					}
				}
			}
		}
	}
}

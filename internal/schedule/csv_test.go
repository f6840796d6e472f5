package schedule

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const timetableCSV = "\ufeffday,slot_start,duration_min,workout_code,trainer,theme,description\r\n" +
	"2,18:00,55,Power,Титов Андрей,,\r\n" +
	"1,10:00,55,start,Юля Смирнова,,\r\n" +
	"\r\n" +
	"1,08:00,45,core,\"Кристина   Лилова\",Rock,\"Rock, \"\"loud\"\" ride\"\r\n" +
	"1,20:00,90,cinema,Игорь Гареев,,\r\n"

func TestParseTimetableCSV(t *testing.T) {
	rows, err := ParseTimetableCSV(strings.NewReader(timetableCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}

	order := []string{"1 08:00", "1 10:00", "1 20:00", "2 18:00"}
	for i, want := range order {
		got := strings.Join([]string{string(rune('0' + rows[i].Day)), rows[i].SlotStart}, " ")
		if got != want {
			t.Fatalf("row %d = %s, want %s", i, got, want)
		}
	}

	themed := rows[0]
	if themed.WorkoutCode != "core" || themed.ThemeType != "theme" || themed.ThemeTitle != "Rock" {
		t.Fatalf("themed row = %+v", themed)
	}
	if themed.Description != `Rock, "loud" ride` {
		t.Fatalf("description = %q", themed.Description)
	}
	if rows[3].WorkoutCode != "power" {
		t.Fatalf("workout code not lowered: %q", rows[3].WorkoutCode)
	}
	if rows[1].Description != "" || rows[1].ThemeType != "" {
		t.Fatalf("plain row has theme: %+v", rows[1])
	}
}

func TestParseTimetableCSVErrors(t *testing.T) {
	header := "day,slot_start,duration_min,workout_code,trainer\n"
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"empty", "", "empty"},
		{"header only", header, "empty"},
		{"missing column", "day,slot_start,duration_min,trainer\n1,10:00,55,X\n", `"workout_code"`},
		{"bad day", header + "0,10:00,55,core,X\n", "line 2"},
		{"bad slot", header + "1,10am,55,core,X\n", "slot_start"},
		{"bad duration", header + "1,10:00,121,core,X\n", "duration_min"},
		{"empty workout", header + "1,10:00,55,,X\n", "workout_code"},
		{"empty trainer", header + "1,10:00,55,core,\n", "trainer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTimetableCSV(strings.NewReader(tt.csv))
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestNormalizeTrainerName(t *testing.T) {
	tests := map[string]string{
		"  Алёна   Ковалёва ": "алена ковалева",
		"Kristina\tLilova":   "kristina lilova",
	}
	for in, want := range tests {
		if got := normalizeTrainerName(in); got != want {
			t.Errorf("normalizeTrainerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildFromCSVCyclesTemplateDays(t *testing.T) {
	env := newTestEnv(t)
	rows, err := ParseTimetableCSV(strings.NewReader(timetableCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	result, err := env.svc.BuildFromCSV(context.Background(), rows, ImportOptions{StartDate: "2026-02-09", Days: 3})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.Issue != nil {
		t.Fatalf("issue = %v", result.Issue)
	}
	// Day 1 has three rows, day 2 one; the third date repeats day 1.
	if len(result.Sessions) != 7 {
		t.Fatalf("sessions = %d, want 7", len(result.Sessions))
	}

	first := result.Sessions[0]
	if first.ID != "s-201" || first.StartsAt != "2026-02-09T08:00:00+03:00" {
		t.Fatalf("first = %+v", first)
	}
	if first.TrainerID == nil || *first.TrainerID != "t-sofia" {
		t.Fatalf("trainer = %v, want t-sofia", first.TrainerID)
	}
	if !first.IsThematic || first.DescriptionRU != `Rock, "loud" ride` || first.DescriptionEN != first.DescriptionRU {
		t.Fatalf("themed session = %+v", first)
	}
	if first.Capacity != env.svc.Catalog().Generation.Capacity || first.BookedCount != 0 {
		t.Fatalf("capacity = %d booked = %d", first.Capacity, first.BookedCount)
	}

	secondDay := result.Sessions[3]
	if secondDay.StartsAt != "2026-02-10T18:00:00+03:00" || *secondDay.TrainerID != "t-arseny" {
		t.Fatalf("second day = %+v", secondDay)
	}
	last := result.Sessions[6]
	if last.ID != "s-207" || last.StartsAt != "2026-02-11T20:00:00+03:00" {
		t.Fatalf("last = %+v", last)
	}
	// The closing template is thematic by default.
	if !last.IsThematic {
		t.Fatal("cinema session should be thematic")
	}
}

func TestBuildFromCSVUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"workout", "day,slot_start,duration_min,workout_code,trainer\n1,10:00,55,yoga,Юля Смирнова\n", "yoga"},
		{"trainer", "day,slot_start,duration_min,workout_code,trainer\n1,10:00,55,core,Nobody Here\n", "Nobody Here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ImportCSV(context.Background(), strings.NewReader(tt.csv), ImportOptions{StartDate: "2026-02-09", Days: 1}, false)
			if !errors.Is(err, ErrInvalidInput) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestImportCSVApplyAndDefaultStartDate(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.ImportCSV(context.Background(), strings.NewReader(timetableCSV), ImportOptions{Days: 2}, true)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Sessions) != 4 {
		t.Fatalf("stored = %d, want 4", len(result.Sessions))
	}
	// fixedNow is 21:30 UTC, already the next day at +03:00.
	if !strings.HasPrefix(result.Sessions[0].StartsAt, "2026-02-09T") {
		t.Fatalf("start = %s", result.Sessions[0].StartsAt)
	}
}

func TestImportCSVApplyRejectsOverlap(t *testing.T) {
	env := newTestEnv(t)
	csv := "day,slot_start,duration_min,workout_code,trainer\n" +
		"1,10:00,90,core,Юля Смирнова\n" +
		"1,11:00,30,start,Юля Смирнова\n"

	_, err := env.svc.ImportCSV(context.Background(), strings.NewReader(csv), ImportOptions{StartDate: "2026-02-09", Days: 1}, true)
	if issue := issueOf(t, err); issue.SessionID != "s-202" {
		t.Fatalf("issue = %v", issue)
	}
}

func TestTodayInOffset(t *testing.T) {
	now := time.Date(2026, 2, 8, 22, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"+03:00": "2026-02-09",
		"Z":      "2026-02-08",
		"-05:00": "2026-02-08",
	}
	for offset, want := range tests {
		if got := todayInOffset(now, offset); got != want {
			t.Errorf("todayInOffset(%s) = %s, want %s", offset, got, want)
		}
	}
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MarpatOG/VibeRide/internal/generator"
	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
)

var (
	requiredColumns = []string{"day", "slot_start", "duration_min", "workout_code", "trainer"}
	slotStartFormat = regexp.MustCompile(`^\d{2}:\d{2}$`)
	utf8BOM         = []byte{0xEF, 0xBB, 0xBF}
)

// TimetableRow is one line of a template timetable CSV. Day numbers the
// template day, starting at 1.
type TimetableRow struct {
	Day         int
	SlotStart   string
	DurationMin int
	WorkoutCode string
	Trainer     string
	ThemeType   string
	ThemeTitle  string
	Description string
}

// ParseTimetableCSV reads a template timetable. Rows come back ordered by day
// and slot start.
func ParseTimetableCSV(r io.Reader) ([]TimetableRow, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV is empty", ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read CSV header: %v", ErrInvalidInput, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: CSV is missing required column %q", ErrInvalidInput, name)
		}
	}

	var rows []TimetableRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read CSV: %v", ErrInvalidInput, err)
		}
		if blankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row, err := timetableRow(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, line, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: CSV is empty", ErrInvalidInput)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		return rows[i].SlotStart < rows[j].SlotStart
	})
	return rows, nil
}

func timetableRow(cell func(string) string) (TimetableRow, error) {
	day, err := strconv.Atoi(cell("day"))
	if err != nil || day < 1 {
		return TimetableRow{}, fmt.Errorf("invalid day %q", cell("day"))
	}
	slot := cell("slot_start")
	if !slotStartFormat.MatchString(slot) {
		return TimetableRow{}, fmt.Errorf("invalid slot_start %q", slot)
	}
	duration, err := strconv.Atoi(cell("duration_min"))
	if err != nil || duration < 1 || duration > scheduling.MaxSessionDurationMin {
		return TimetableRow{}, fmt.Errorf("invalid duration_min %q", cell("duration_min"))
	}
	code := strings.ToLower(cell("workout_code"))
	if code == "" {
		return TimetableRow{}, errors.New("empty workout_code")
	}
	trainer := cell("trainer")
	if trainer == "" {
		return TimetableRow{}, errors.New("empty trainer")
	}

	theme := cell("theme")
	themeType := cell("theme_type")
	if themeType == "" && theme != "" {
		themeType = "theme"
	}
	themeTitle := cell("theme_title")
	if themeTitle == "" {
		themeTitle = theme
	}
	description := cell("description")
	if description == "" {
		description = themeTitle
	}

	return TimetableRow{
		Day:         day,
		SlotStart:   slot,
		DurationMin: duration,
		WorkoutCode: code,
		Trainer:     trainer,
		ThemeType:   themeType,
		ThemeTitle:  themeTitle,
		Description: description,
	}, nil
}

// normalizeTrainerName folds a trainer name for lookup: whitespace runs
// collapse, case folds and ё reads as е.
func normalizeTrainerName(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), " "))
	return strings.ReplaceAll(name, "ё", "е")
}

// ImportOptions control how a template timetable is laid out. Zero values
// take the catalog defaults; an empty StartDate means today in the catalog
// offset.
type ImportOptions struct {
	HallID    string
	StartDate string
	Days      int
}

// ImportResult is the timetable built from a CSV.
type ImportResult struct {
	Sessions []models.Session
	Issue    *scheduling.Issue
}

// BuildFromCSV lays the template days of rows over the horizon, cycling
// through them, and turns each row into a session.
func (s *Service) BuildFromCSV(ctx context.Context, rows []TimetableRow, opts ImportOptions) (*ImportResult, error) {
	gen := s.catalog.Generation
	offset := gen.TimezoneOffset

	hallID := scheduling.NormalizeHallID(firstNonEmpty(opts.HallID, gen.HallID))
	days := opts.Days
	if days <= 0 {
		days = gen.Days
	}
	startDate := opts.StartDate
	if startDate == "" {
		startDate = todayInOffset(s.now(), offset)
	}
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q must be YYYY-MM-DD", ErrInvalidInput, startDate)
	}

	trainerIDs, err := s.trainerNameIndex(ctx)
	if err != nil {
		return nil, err
	}

	var templateDays []int
	byDay := make(map[int][]TimetableRow)
	for _, row := range rows {
		if _, seen := byDay[row.Day]; !seen {
			templateDays = append(templateDays, row.Day)
		}
		byDay[row.Day] = append(byDay[row.Day], row)
	}
	if len(templateDays) == 0 {
		return nil, fmt.Errorf("%w: no template rows", ErrInvalidInput)
	}
	sort.Ints(templateDays)

	prefix := firstNonEmpty(gen.SessionIDPrefix, generator.DefaultSessionIDPrefix)
	seq := gen.SessionStartSeq
	if seq <= 0 {
		seq = generator.DefaultSessionStartSeq
	}
	sessions := make([]models.Session, 0, days*len(rows)/len(templateDays))
	for dayIndex := 0; dayIndex < days; dayIndex++ {
		date := start.AddDate(0, 0, dayIndex).Format(time.DateOnly)
		templateDay := templateDays[dayIndex%len(templateDays)]

		for _, row := range byDay[templateDay] {
			tpl, ok := s.catalog.TemplateForWorkout(row.WorkoutCode)
			if !ok {
				return nil, fmt.Errorf("%w: unknown workout_code %q on day %d at %s", ErrInvalidInput, row.WorkoutCode, row.Day, row.SlotStart)
			}
			trainerID, ok := trainerIDs[normalizeTrainerName(row.Trainer)]
			if !ok {
				return nil, fmt.Errorf("%w: trainer %q not found", ErrInvalidInput, row.Trainer)
			}

			thematic := row.ThemeType != "" || row.ThemeTitle != "" || row.Description != ""
			sessions = append(sessions, models.Session{
				ID:            fmt.Sprintf("%s%d", prefix, seq),
				HallID:        hallID,
				StartsAt:      fmt.Sprintf("%sT%s:00%s", date, row.SlotStart, offset),
				DurationMin:   row.DurationMin,
				TitleRU:       tpl.Title.RU,
				TitleEN:       tpl.Title.EN,
				SubtitleRU:    tpl.Subtitle.RU,
				SubtitleEN:    tpl.Subtitle.EN,
				DescriptionRU: row.Description,
				DescriptionEN: row.Description,
				IsThematic:    thematic || tpl.IsThematicDefault,
				TrainerID:     optionalID(trainerID),
				Capacity:      gen.Capacity,
				Level:         tpl.Level,
			})
			seq++
		}
	}

	return &ImportResult{
		Sessions: sessions,
		Issue:    scheduling.FindFirstHallSlotIssue(slotsOf(sessions)),
	}, nil
}

// ImportCSV parses a template timetable and builds the sessions. With apply
// set, a clean result replaces the stored timetable.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, opts ImportOptions, apply bool) (*ImportResult, error) {
	rows, err := ParseTimetableCSV(r)
	if err != nil {
		return nil, err
	}
	result, err := s.BuildFromCSV(ctx, rows, opts)
	if err != nil {
		return nil, err
	}
	if !apply {
		return result, nil
	}
	if err := rejectIssue(result.Issue); err != nil {
		return result, err
	}

	sessions, err := s.ReplaceSessions(ctx, result.Sessions)
	if err != nil {
		return result, err
	}
	result.Sessions = sessions
	s.logger.Info().Int("rows", len(rows)).Int("sessions", len(sessions)).Msg("timetable imported")
	return result, nil
}

// trainerNameIndex maps "name last" and "last name" forms to trainer ids.
// Stored trainers win over catalog profiles of the same name.
func (s *Service) trainerNameIndex(ctx context.Context) (map[string]string, error) {
	index := make(map[string]string)
	add := func(id, name, lastName string) {
		index[normalizeTrainerName(name+" "+lastName)] = id
		index[normalizeTrainerName(lastName+" "+name)] = id
	}

	for _, p := range s.catalog.Trainers {
		add(p.ID, p.Name, p.LastName)
	}

	var stored []models.Trainer
	if err := s.db.WithContext(ctx).Select("id", "name", "last_name").Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("load trainers: %w", err)
	}
	for _, t := range stored {
		add(t.ID, t.Name, t.LastName)
	}
	return index, nil
}

// todayInOffset returns the calendar date at now in a fixed offset like +03:00.
func todayInOffset(now time.Time, offset string) string {
	if ref, err := time.Parse(time.RFC3339, "2000-01-01T00:00:00"+offset); err == nil {
		now = now.In(ref.Location())
	}
	return now.Format(time.DateOnly)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

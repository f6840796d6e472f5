/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
)

// DefaultExportDays is the export window when none is given.
const DefaultExportDays = 7

// ExportOptions select the sessions of an export. A zero From exports every
// session of the hall.
type ExportOptions struct {
	HallID string
	From   time.Time
	Days   int
	// Lang picks the text language, "ru" or "en" (default).
	Lang string
}

func (o ExportOptions) window() (time.Time, time.Time, bool) {
	if o.From.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	days := o.Days
	if days <= 0 {
		days = DefaultExportDays
	}
	return o.From, o.From.AddDate(0, 0, days), true
}

// ExportICalResult contains the iCal export data.
type ExportICalResult struct {
	Data        []byte
	Filename    string
	ContentType string
	Sessions    int
}

type exportItem struct {
	session models.Session
	start   time.Time
}

// exportSessions loads the hall name and the sessions inside the window.
func (s *Service) exportSessions(ctx context.Context, opts ExportOptions) (string, []exportItem, error) {
	hallID := scheduling.NormalizeHallID(opts.HallID)

	hallName := hallID
	var hall models.Hall
	err := s.db.WithContext(ctx).First(&hall, "id = ?", hallID).Error
	switch {
	case err == nil:
		hallName = hall.Name
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil, fmt.Errorf("get hall: %w", err)
	}

	var sessions []models.Session
	if err := s.db.WithContext(ctx).Where("hall_id = ?", hallID).Order("starts_at ASC").Find(&sessions).Error; err != nil {
		return "", nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	from, to, bounded := opts.window()
	items := make([]exportItem, 0, len(sessions))
	for _, session := range sessions {
		start, ok := scheduling.ParseStartsAt(session.StartsAt)
		if !ok {
			s.logger.Warn().Str("session_id", session.ID).Str("starts_at", session.StartsAt).Msg("skipping session with invalid start")
			continue
		}
		if bounded && (start.Before(from) || !start.Before(to)) {
			continue
		}
		items = append(items, exportItem{session: session, start: start})
	}
	return hallName, items, nil
}

func (s *Service) trainerNames(ctx context.Context) (map[string]string, error) {
	var trainers []models.Trainer
	if err := s.db.WithContext(ctx).Select("id", "name", "last_name").Find(&trainers).Error; err != nil {
		return nil, fmt.Errorf("load trainers: %w", err)
	}
	names := make(map[string]string, len(trainers))
	for _, t := range trainers {
		names[t.ID] = strings.TrimSpace(t.Name + " " + t.LastName)
	}
	return names, nil
}

// ExportToICal exports a hall's sessions to iCal format.
func (s *Service) ExportToICal(ctx context.Context, opts ExportOptions) (*ExportICalResult, error) {
	hallName, items, err := s.exportSessions(ctx, opts)
	if err != nil {
		return nil, err
	}
	trainers, err := s.trainerNames(ctx)
	if err != nil {
		return nil, err
	}

	pick := func(text models.Localized) string {
		if opts.Lang == "ru" && text.RU != "" {
			return text.RU
		}
		if text.EN != "" {
			return text.EN
		}
		return text.RU
	}

	stamp := formatICalTime(s.now())

	var buf bytes.Buffer
	buf.WriteString("BEGIN:VCALENDAR\r\n")
	buf.WriteString("VERSION:2.0\r\n")
	buf.WriteString("PRODID:-//VibeRide//Studio Schedule//EN\r\n")
	buf.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICalText(hallName)))
	buf.WriteString("CALSCALE:GREGORIAN\r\n")
	buf.WriteString("METHOD:PUBLISH\r\n")

	for _, item := range items {
		session := item.session
		end := item.start.Add(time.Duration(session.DurationMin) * time.Minute)

		buf.WriteString("BEGIN:VEVENT\r\n")
		buf.WriteString(fmt.Sprintf("UID:%s@viberide\r\n", session.ID))
		buf.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
		buf.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICalTime(item.start)))
		buf.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICalTime(end)))
		buf.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICalText(pick(session.Title()))))

		var details []string
		if sub := pick(session.Subtitle()); sub != "" {
			details = append(details, sub)
		}
		if desc := pick(session.Description()); desc != "" {
			details = append(details, desc)
		}
		if session.TrainerID != nil {
			if name := trainers[*session.TrainerID]; name != "" {
				details = append(details, "Trainer: "+name)
			}
		}
		if len(details) > 0 {
			buf.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICalText(strings.Join(details, "\n"))))
		}

		buf.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICalText(hallName)))
		buf.WriteString(fmt.Sprintf("CATEGORIES:%s\r\n", strings.ToUpper(string(session.Level))))
		buf.WriteString("END:VEVENT\r\n")
	}

	buf.WriteString("END:VCALENDAR\r\n")

	return &ExportICalResult{
		Data:        buf.Bytes(),
		Filename:    exportFilename(scheduling.NormalizeHallID(opts.HallID), opts, "ics"),
		ContentType: "text/calendar; charset=utf-8",
		Sessions:    len(items),
	}, nil
}

// Snapshot is the JSON export of a hall's timetable.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	HallID      string           `json:"hallId"`
	HallName    string           `json:"hallName"`
	Sessions    []SessionPayload `json:"sessions"`
	Trainers    []TrainerPayload `json:"trainers"`
}

// ExportSnapshot builds the JSON snapshot of a hall's sessions and trainers.
func (s *Service) ExportSnapshot(ctx context.Context, opts ExportOptions) (*Snapshot, error) {
	hallName, items, err := s.exportSessions(ctx, opts)
	if err != nil {
		return nil, err
	}

	var trainers []models.Trainer
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&trainers).Error; err != nil {
		return nil, fmt.Errorf("load trainers: %w", err)
	}

	sessions := make([]SessionPayload, len(items))
	for i, item := range items {
		sessions[i] = ToSessionPayload(item.session)
	}
	return &Snapshot{
		GeneratedAt: s.now().UTC(),
		HallID:      scheduling.NormalizeHallID(opts.HallID),
		HallName:    hallName,
		Sessions:    sessions,
		Trainers:    ToTrainerPayloads(trainers),
	}, nil
}

// PublishResult lists where the exports were written.
type PublishResult struct {
	SnapshotKey      string `json:"snapshotKey"`
	SnapshotLocation string `json:"snapshotLocation"`
	ICalKey          string `json:"icalKey"`
	ICalLocation     string `json:"icalLocation"`
	Sessions         int    `json:"sessions"`
}

// PublishSchedule writes the JSON snapshot and the iCal feed of a hall to
// the object store under schedules/<hall>/.
func (s *Service) PublishSchedule(ctx context.Context, opts ExportOptions) (*PublishResult, error) {
	if s.store == nil {
		return nil, ErrNoObjectStore
	}
	hallID := scheduling.NormalizeHallID(opts.HallID)
	opts.HallID = hallID

	snapshot, err := s.ExportSnapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	snapshotData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	ical, err := s.ExportToICal(ctx, opts)
	if err != nil {
		return nil, err
	}

	prefix := "schedules/" + hallID + "/"
	result := &PublishResult{
		SnapshotKey: prefix + "schedule.json",
		ICalKey:     prefix + "schedule.ics",
		Sessions:    len(snapshot.Sessions),
	}
	if err := s.store.Put(ctx, result.SnapshotKey, snapshotData); err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}
	if err := s.store.Put(ctx, result.ICalKey, ical.Data); err != nil {
		return nil, fmt.Errorf("publish calendar: %w", err)
	}
	result.SnapshotLocation = s.store.Location(result.SnapshotKey)
	result.ICalLocation = s.store.Location(result.ICalKey)

	s.publish(events.EventSchedulePublished, events.Payload{
		"hall_id":  hallID,
		"sessions": result.Sessions,
		"snapshot": result.SnapshotLocation,
		"ical":     result.ICalLocation,
	})
	s.logger.Info().
		Str("hall_id", hallID).
		Int("sessions", result.Sessions).
		Str("snapshot", result.SnapshotLocation).
		Msg("schedule published")
	return result, nil
}

func exportFilename(hallID string, opts ExportOptions, ext string) string {
	from, to, bounded := opts.window()
	if !bounded {
		return fmt.Sprintf("%s-schedule.%s", slugify(hallID), ext)
	}
	return fmt.Sprintf("%s-schedule-%s-to-%s.%s",
		slugify(hallID),
		from.Format(time.DateOnly),
		to.AddDate(0, 0, -1).Format(time.DateOnly),
		ext)
}

// Helper functions

func formatICalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func escapeICalText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "hall"
	}
	return result.String()
}

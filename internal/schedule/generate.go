/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarpatOG/VibeRide/internal/generator"
	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
	"github.com/MarpatOG/VibeRide/internal/telemetry"
)

// GenerateOptions override the catalog generation defaults. Zero values keep
// the default.
type GenerateOptions struct {
	HallID          string   `json:"hallId" validate:"omitempty,max=64"`
	StartDate       string   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Days            int      `json:"days" validate:"gte=0,lte=366"`
	TimezoneOffset  string   `json:"timezoneOffset"`
	SlotTimes       []string `json:"slotTimes" validate:"omitempty,dive,datetime=15:04"`
	Capacity        int      `json:"capacity" validate:"gte=0,lte=10000"`
	SessionStartSeq int      `json:"sessionStartSeq" validate:"gte=0"`
}

// Preview is the outcome of a generation run before anything is stored.
type Preview struct {
	Config   generator.Config
	Sessions []models.Session
	Result   generator.Result
	Issue    *scheduling.Issue
}

// GeneratorConfig merges opts into the catalog defaults.
func (s *Service) GeneratorConfig(opts GenerateOptions) generator.Config {
	cfg := s.catalog.GeneratorConfig()
	if opts.HallID != "" {
		cfg.HallID = opts.HallID
	}
	if opts.StartDate != "" {
		cfg.StartDate = opts.StartDate
	}
	if opts.Days > 0 {
		cfg.Days = opts.Days
	}
	if opts.TimezoneOffset != "" {
		cfg.TimezoneOffset = opts.TimezoneOffset
	}
	if len(opts.SlotTimes) > 0 {
		cfg.SlotTimes = append([]string(nil), opts.SlotTimes...)
	}
	if opts.Capacity > 0 {
		cfg.Capacity = opts.Capacity
	}
	if opts.SessionStartSeq > 0 {
		cfg.SessionStartSeq = opts.SessionStartSeq
	}
	cfg.HallID = scheduling.NormalizeHallID(cfg.HallID)
	return cfg
}

// PreviewGeneration runs the generator and validates its output without
// storing anything.
func (s *Service) PreviewGeneration(ctx context.Context, opts GenerateOptions) (*Preview, error) {
	return s.generate(ctx, "preview", opts)
}

// ApplyGeneration generates a timetable and replaces the stored one with it.
// A batch with a slot issue is rejected.
func (s *Service) ApplyGeneration(ctx context.Context, opts GenerateOptions) (*Preview, []models.Session, error) {
	preview, err := s.generate(ctx, "apply", opts)
	if err != nil {
		return nil, nil, err
	}
	if err := rejectIssue(preview.Issue); err != nil {
		return preview, nil, err
	}

	sessions, err := s.ReplaceSessions(ctx, preview.Sessions)
	if err != nil {
		return preview, nil, err
	}
	return preview, sessions, nil
}

func (s *Service) generate(ctx context.Context, mode string, opts GenerateOptions) (*Preview, error) {
	_, span := telemetry.StartSpan(ctx, "schedule.generate")
	defer span.End()

	cfg := s.GeneratorConfig(opts)
	telemetry.AddSpanAttributes(span, map[string]any{
		"generate.mode":       mode,
		"generate.hall_id":    cfg.HallID,
		"generate.start_date": cfg.StartDate,
		"generate.days":       cfg.Days,
	})

	started := time.Now()
	result, err := generator.Generate(cfg)
	telemetry.GeneratorDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		telemetry.GeneratorRunsTotal.WithLabelValues(mode, "invalid").Inc()
		telemetry.RecordError(span, err)
		if errors.Is(err, generator.ErrInvalidConfig) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, err
	}

	sessions := make([]models.Session, len(result.Sessions))
	for i, g := range result.Sessions {
		sessions[i] = FromGenerated(g)
	}
	issue := scheduling.FindFirstHallSlotIssue(result.Slots())

	outcome := "ok"
	if issue != nil {
		outcome = "conflict"
	}
	telemetry.GeneratorRunsTotal.WithLabelValues(mode, outcome).Inc()
	telemetry.GeneratorSessionsTotal.Add(float64(len(result.Sessions)))
	telemetry.GeneratorIssuesTotal.Add(float64(len(result.Issues)))
	telemetry.AddSpanAttributes(span, map[string]any{
		"generate.sessions": len(result.Sessions),
		"generate.issues":   len(result.Issues),
	})

	s.logger.Info().
		Str("mode", mode).
		Str("hall_id", cfg.HallID).
		Str("start_date", cfg.StartDate).
		Int("days", cfg.Days).
		Int("sessions", len(result.Sessions)).
		Int("warnings", len(result.Issues)).
		Msg("timetable generated")

	return &Preview{Config: cfg, Sessions: sessions, Result: result, Issue: issue}, nil
}

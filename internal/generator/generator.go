/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package generator builds a multi-day studio timetable from workout
// templates and trainer duty cycles. Output depends only on the input config.
package generator

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
)

// Shift is the half of the operating day a slot belongs to.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
)

func (s Shift) valid() bool {
	return s == ShiftMorning || s == ShiftEvening
}

const (
	DefaultEveningShiftStartsAt = "16:00"
	DefaultSessionIDPrefix      = "s-"
	DefaultSessionStartSeq      = 1

	// MaxCapacity is the largest seat capacity Config.Validate accepts.
	MaxCapacity = 10000

	// dutyCycleDays is the length of a trainer's on/off cycle; the first
	// dutyDaysOn days of each cycle are working days.
	dutyCycleDays = 4
	dutyDaysOn    = 2

	// Simulated demand starts at this many seats.
	baseDemand = 6
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("invalid generator config")

var (
	slotTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	offsetPattern   = regexp.MustCompile(`^(Z|[+-]([01]\d|2[0-3]):[0-5]\d)$`)
)

// Template is a reusable workout definition.
type Template struct {
	ID                string              `json:"id" yaml:"id"`
	DurationMin       int                 `json:"durationMin" yaml:"duration_min"`
	Level             models.SessionLevel `json:"level" yaml:"level"`
	Title             models.Localized    `json:"title" yaml:"title"`
	Subtitle          models.Localized    `json:"subtitle" yaml:"subtitle"`
	Description       models.Localized    `json:"description" yaml:"description"`
	IsThematicDefault bool                `json:"isThematicDefault,omitempty" yaml:"is_thematic_default"`
	// Shifts limits where the template may run; empty means any shift.
	Shifts []Shift `json:"shifts,omitempty" yaml:"shifts"`
}

// EligibleFor reports whether the template may be used in the shift.
func (t Template) EligibleFor(shift Shift) bool {
	if len(t.Shifts) == 0 {
		return true
	}
	for _, s := range t.Shifts {
		if s == shift {
			return true
		}
	}
	return false
}

// TrainerRule places a trainer on a shift with a phase-shifted duty cycle.
type TrainerRule struct {
	TrainerID   string `json:"trainerId" yaml:"trainer_id"`
	Shift       Shift  `json:"shift" yaml:"shift"`
	CycleOffset int    `json:"cycleOffset" yaml:"cycle_offset"`
}

// Config is the input of one generation run.
type Config struct {
	HallID               string
	StartDate            string // YYYY-MM-DD
	Days                 int
	TimezoneOffset       string // e.g. +03:00
	SlotTimes            []string
	Capacity             int
	Templates            []Template
	TrainerRules         []TrainerRule
	ClosingTemplateID    string
	EveningShiftStartsAt string
	SessionIDPrefix      string
	SessionStartSeq      int
}

// Session is one generated class.
type Session struct {
	ID          string              `json:"id"`
	HallID      string              `json:"hallId"`
	StartsAt    string              `json:"startsAt"`
	DurationMin int                 `json:"durationMin"`
	Title       models.Localized    `json:"title"`
	Subtitle    models.Localized    `json:"subtitle"`
	Description models.Localized    `json:"description"`
	IsThematic  bool                `json:"isThematic"`
	TrainerID   string              `json:"trainerId"`
	TemplateID  string              `json:"templateId"`
	Capacity    int                 `json:"capacity"`
	BookedCount int                 `json:"bookedCount"`
	Level       models.SessionLevel `json:"level"`
}

// Slot returns the validator view of the session.
func (s Session) Slot() scheduling.Session {
	return scheduling.Session{ID: s.ID, HallID: s.HallID, StartsAt: s.StartsAt, DurationMin: s.DurationMin}
}

// Result holds the generated sessions and non-fatal configuration warnings.
type Result struct {
	Sessions []Session `json:"sessions"`
	Issues   []string  `json:"issues"`
}

// Slots returns the validator view of every generated session.
func (r Result) Slots() []scheduling.Session {
	out := make([]scheduling.Session, len(r.Sessions))
	for i, s := range r.Sessions {
		out[i] = s.Slot()
	}
	return out
}

func (c Config) withDefaults() Config {
	c.HallID = scheduling.NormalizeHallID(c.HallID)
	if c.EveningShiftStartsAt == "" {
		c.EveningShiftStartsAt = DefaultEveningShiftStartsAt
	}
	if c.SessionIDPrefix == "" {
		c.SessionIDPrefix = DefaultSessionIDPrefix
	}
	if c.SessionStartSeq <= 0 {
		c.SessionStartSeq = DefaultSessionStartSeq
	}
	return c
}

// Validate rejects configurations that cannot produce a sensible timetable.
func (c Config) Validate() error {
	c = c.withDefaults()

	if c.Days < 0 {
		return fmt.Errorf("%w: days must not be negative, got %d", ErrInvalidConfig, c.Days)
	}
	if _, err := time.Parse(time.DateOnly, c.StartDate); err != nil {
		return fmt.Errorf("%w: start date %q: %v", ErrInvalidConfig, c.StartDate, err)
	}
	if !offsetPattern.MatchString(c.TimezoneOffset) {
		return fmt.Errorf("%w: timezone offset %q must look like +03:00", ErrInvalidConfig, c.TimezoneOffset)
	}
	if !slotTimePattern.MatchString(c.EveningShiftStartsAt) {
		return fmt.Errorf("%w: evening shift boundary %q must be HH:MM", ErrInvalidConfig, c.EveningShiftStartsAt)
	}
	for i, slot := range c.SlotTimes {
		if !slotTimePattern.MatchString(slot) {
			return fmt.Errorf("%w: slot time %q must be HH:MM", ErrInvalidConfig, slot)
		}
		if i > 0 && slot <= c.SlotTimes[i-1] {
			if slot == c.SlotTimes[i-1] {
				return fmt.Errorf("%w: duplicate slot time %s", ErrInvalidConfig, slot)
			}
			return fmt.Errorf("%w: slot times out of order at %s", ErrInvalidConfig, slot)
		}
	}
	if c.Capacity < 0 || c.Capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity must be within [0, %d], got %d", ErrInvalidConfig, MaxCapacity, c.Capacity)
	}

	seen := make(map[string]bool, len(c.Templates))
	for _, tpl := range c.Templates {
		if tpl.ID == "" {
			return fmt.Errorf("%w: template without id", ErrInvalidConfig)
		}
		if seen[tpl.ID] {
			return fmt.Errorf("%w: duplicate template %s", ErrInvalidConfig, tpl.ID)
		}
		seen[tpl.ID] = true
		for _, s := range tpl.Shifts {
			if !s.valid() {
				return fmt.Errorf("%w: template %s has unknown shift %q", ErrInvalidConfig, tpl.ID, s)
			}
		}
	}
	if c.ClosingTemplateID != "" {
		if !seen[c.ClosingTemplateID] {
			return fmt.Errorf("%w: closing template %s is not in the catalog", ErrInvalidConfig, c.ClosingTemplateID)
		}
		if n := len(c.SlotTimes); n > 0 {
			last := c.SlotTimes[n-1]
			shift := resolveShift(last, c.EveningShiftStartsAt)
			for _, tpl := range c.Templates {
				if tpl.ID == c.ClosingTemplateID && !tpl.EligibleFor(shift) {
					return fmt.Errorf("%w: closing template %s cannot run in the %s slot at %s",
						ErrInvalidConfig, tpl.ID, shift, last)
				}
			}
		}
	}

	for _, rule := range c.TrainerRules {
		if rule.TrainerID == "" {
			return fmt.Errorf("%w: trainer rule without trainer id", ErrInvalidConfig)
		}
		if !rule.Shift.valid() {
			return fmt.Errorf("%w: trainer %s has unknown shift %q", ErrInvalidConfig, rule.TrainerID, rule.Shift)
		}
	}
	return nil
}

// Generate produces the timetable for cfg. Missing trainers or templates are
// reported in Result.Issues and the affected slot is skipped.
func Generate(cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	cfg = cfg.withDefaults()

	start, _ := time.Parse(time.DateOnly, cfg.StartDate)

	var closing *Template
	rotating := make([]Template, 0, len(cfg.Templates))
	for i := range cfg.Templates {
		if cfg.ClosingTemplateID != "" && cfg.Templates[i].ID == cfg.ClosingTemplateID {
			closing = &cfg.Templates[i]
			continue
		}
		rotating = append(rotating, cfg.Templates[i])
	}

	run := &run{
		cfg:         cfg,
		globalUsage: make(map[string]int),
		trainerLoad: make(map[string]int),
		sequence:    cfg.SessionStartSeq,
		result:      Result{Sessions: []Session{}, Issues: []string{}},
	}

	lastSlot := len(cfg.SlotTimes) - 1
	for dayIndex := 0; dayIndex < cfg.Days; dayIndex++ {
		date := start.AddDate(0, 0, dayIndex).Format(time.DateOnly)
		dayUsage := make(map[string]int)
		previousTemplateID := ""

		for slotIndex, slotTime := range cfg.SlotTimes {
			shift := resolveShift(slotTime, cfg.EveningShiftStartsAt)

			trainerID, ok := run.pickTrainer(shift, dayIndex, date, slotTime)
			if !ok {
				continue
			}

			var tpl *Template
			if closing != nil && slotIndex == lastSlot {
				tpl = closing
			} else {
				seed := fmt.Sprintf("%s:%s:%d", date, slotTime, slotIndex)
				tpl = pickTemplate(rotating, shift, dayUsage, run.globalUsage, previousTemplateID, seed)
			}
			if tpl == nil {
				run.warn("No training template for %s %s (%s)", date, slotTime, shift)
				continue
			}

			dayUsage[tpl.ID]++
			run.globalUsage[tpl.ID]++
			previousTemplateID = tpl.ID

			run.emit(*tpl, trainerID, date, slotTime)
		}
	}

	return run.result, nil
}

// run carries the accumulators of one Generate call.
type run struct {
	cfg         Config
	globalUsage map[string]int
	trainerLoad map[string]int
	sequence    int
	result      Result
}

func (r *run) warn(format string, args ...any) {
	r.result.Issues = append(r.result.Issues, fmt.Sprintf(format, args...))
}

func (r *run) emit(tpl Template, trainerID, date, slotTime string) {
	r.result.Sessions = append(r.result.Sessions, Session{
		ID:          fmt.Sprintf("%s%d", r.cfg.SessionIDPrefix, r.sequence),
		HallID:      r.cfg.HallID,
		StartsAt:    fmt.Sprintf("%sT%s:00%s", date, slotTime, r.cfg.TimezoneOffset),
		DurationMin: tpl.DurationMin,
		Title:       tpl.Title,
		Subtitle:    tpl.Subtitle,
		Description: tpl.Description,
		IsThematic:  tpl.IsThematicDefault,
		TrainerID:   trainerID,
		TemplateID:  tpl.ID,
		Capacity:    r.cfg.Capacity,
		BookedCount: simulatedDemand(date, slotTime, tpl.ID, trainerID, r.cfg.Capacity),
		Level:       tpl.Level,
	})
	r.sequence++
}

func resolveShift(slotTime, eveningStartsAt string) Shift {
	if slotTime < eveningStartsAt {
		return ShiftMorning
	}
	return ShiftEvening
}

// simulatedDemand fills a preview seat count in [0, capacity].
func simulatedDemand(date, slotTime, templateID, trainerID string, capacity int) int {
	seed := hashString(date + "|" + slotTime + "|" + templateID + "|" + trainerID)
	booked := baseDemand + int(uint64(seed)%uint64(capacity+5))
	return min(capacity, booked)
}

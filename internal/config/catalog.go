/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MarpatOG/VibeRide/internal/generator"
	"github.com/MarpatOG/VibeRide/internal/models"
)

//go:embed catalog.default.yaml
var defaultCatalogYAML []byte

// Catalog is the static studio setup: workout templates, trainer duty rules,
// profiles and generation defaults.
type Catalog struct {
	Generation   GenerationDefaults      `yaml:"generation" json:"generation"`
	Templates    []generator.Template    `yaml:"templates" json:"templates"`
	TrainerRules []generator.TrainerRule `yaml:"trainer_rules" json:"trainerRules"`
	Trainers     []TrainerProfile        `yaml:"trainers" json:"trainers"`
	Halls        []HallProfile           `yaml:"halls" json:"halls"`
	WorkoutTypes []WorkoutType           `yaml:"workout_types" json:"workoutTypes"`
}

// GenerationDefaults seeds a generation run.
type GenerationDefaults struct {
	HallID               string   `yaml:"hall_id" json:"hallId"`
	StartDate            string   `yaml:"start_date" json:"startDate"`
	Days                 int      `yaml:"days" json:"days"`
	TimezoneOffset       string   `yaml:"timezone_offset" json:"timezoneOffset"`
	SlotTimes            []string `yaml:"slot_times" json:"slotTimes"`
	Capacity             int      `yaml:"capacity" json:"capacity"`
	ClosingTemplateID    string   `yaml:"closing_template_id" json:"closingTemplateId,omitempty"`
	EveningShiftStartsAt string   `yaml:"evening_shift_starts_at" json:"eveningShiftStartsAt"`
	SessionIDPrefix      string   `yaml:"session_id_prefix" json:"sessionIdPrefix"`
	SessionStartSeq      int      `yaml:"session_start_seq" json:"sessionStartSeq"`
}

// TrainerProfile is the seed form of a trainer.
type TrainerProfile struct {
	ID       string           `yaml:"id" json:"id"`
	Name     string           `yaml:"name" json:"name"`
	LastName string           `yaml:"last_name" json:"lastName"`
	PhotoURL string           `yaml:"photo_url" json:"photoUrl"`
	Tags     []string         `yaml:"tags" json:"tags"`
	Bio      models.Localized `yaml:"bio" json:"bio"`
}

// Model converts the profile to its database row.
func (p TrainerProfile) Model() models.Trainer {
	return models.Trainer{
		ID:       p.ID,
		Name:     p.Name,
		LastName: p.LastName,
		PhotoURL: p.PhotoURL,
		Tags:     append([]string(nil), p.Tags...),
		BioRU:    p.Bio.RU,
		BioEN:    p.Bio.EN,
	}
}

// HallProfile is the seed form of a hall.
type HallProfile struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// WorkoutType maps the short workout code used in CSV timetables to a template.
type WorkoutType struct {
	Code       string `yaml:"code" json:"code"`
	TemplateID string `yaml:"template_id" json:"templateId"`
}

// DefaultCatalog returns the embedded studio catalog.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog file, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross references inside the catalog.
func (c *Catalog) Validate() error {
	if err := c.GeneratorConfig().Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	templates := make(map[string]bool, len(c.Templates))
	for _, tpl := range c.Templates {
		if !tpl.Level.Valid() {
			return fmt.Errorf("catalog: template %s has unknown level %q", tpl.ID, tpl.Level)
		}
		templates[tpl.ID] = true
	}

	if len(c.Trainers) > 0 {
		trainers := make(map[string]bool, len(c.Trainers))
		for _, tr := range c.Trainers {
			if tr.ID == "" || tr.Name == "" {
				return fmt.Errorf("catalog: trainer needs id and name")
			}
			trainers[tr.ID] = true
		}
		for _, rule := range c.TrainerRules {
			if !trainers[rule.TrainerID] {
				return fmt.Errorf("catalog: trainer rule references unknown trainer %s", rule.TrainerID)
			}
		}
	}

	halls := make(map[string]bool, len(c.Halls))
	for _, h := range c.Halls {
		if halls[h.ID] {
			return fmt.Errorf("catalog: duplicate hall %s", h.ID)
		}
		halls[h.ID] = true
	}
	if len(c.Halls) > 0 && c.Generation.HallID != "" && !halls[c.Generation.HallID] {
		return fmt.Errorf("catalog: generation hall %s is not declared", c.Generation.HallID)
	}

	for _, w := range c.WorkoutTypes {
		if !templates[w.TemplateID] {
			return fmt.Errorf("catalog: workout type %s references unknown template %s", w.Code, w.TemplateID)
		}
	}
	return nil
}

// GeneratorConfig builds a generator config from the catalog defaults.
func (c *Catalog) GeneratorConfig() generator.Config {
	g := c.Generation
	return generator.Config{
		HallID:               g.HallID,
		StartDate:            g.StartDate,
		Days:                 g.Days,
		TimezoneOffset:       g.TimezoneOffset,
		SlotTimes:            append([]string(nil), g.SlotTimes...),
		Capacity:             g.Capacity,
		Templates:            append([]generator.Template(nil), c.Templates...),
		TrainerRules:         append([]generator.TrainerRule(nil), c.TrainerRules...),
		ClosingTemplateID:    g.ClosingTemplateID,
		EveningShiftStartsAt: g.EveningShiftStartsAt,
		SessionIDPrefix:      g.SessionIDPrefix,
		SessionStartSeq:      g.SessionStartSeq,
	}
}

// Template looks up a template by id.
func (c *Catalog) Template(id string) (generator.Template, bool) {
	for _, tpl := range c.Templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return generator.Template{}, false
}

// TemplateForWorkout resolves a CSV workout code (case-insensitive).
func (c *Catalog) TemplateForWorkout(code string) (generator.Template, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, w := range c.WorkoutTypes {
		if strings.ToLower(w.Code) == code {
			return c.Template(w.TemplateID)
		}
	}
	return generator.Template{}, false
}

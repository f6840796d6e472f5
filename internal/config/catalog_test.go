package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MarpatOG/VibeRide/internal/generator"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	if len(c.Templates) != 6 {
		t.Fatalf("expected 6 templates, got %d", len(c.Templates))
	}
	if len(c.Trainers) != 6 || len(c.TrainerRules) != 6 {
		t.Fatalf("expected 6 trainers and rules, got %d/%d", len(c.Trainers), len(c.TrainerRules))
	}
	if c.Generation.SessionStartSeq != 201 || c.Generation.Capacity != 20 {
		t.Fatalf("unexpected generation defaults: %+v", c.Generation)
	}

	cinema, ok := c.Template("vibe-cinema")
	if !ok || !cinema.IsThematicDefault || cinema.DurationMin != 95 {
		t.Fatalf("unexpected closing template: %+v", cinema)
	}
}

func TestDefaultCatalogGeneratesStudioWeek(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	res, err := generator.Generate(c.GeneratorConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Sessions) != 60 {
		t.Fatalf("expected 60 sessions, got %d", len(res.Sessions))
	}
	if len(res.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", res.Issues)
	}
	if res.Sessions[0].ID != "s-201" {
		t.Fatalf("unexpected first id %s", res.Sessions[0].ID)
	}
}

func TestTemplateForWorkout(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	tests := []struct {
		code string
		want string
		ok   bool
	}{
		{"start", "vibe-start", true},
		{"  Cinema ", "vibe-cinema", true},
		{"ENDURANCE", "vibe-endurance", true},
		{"yoga", "", false},
	}
	for _, tt := range tests {
		tpl, ok := c.TemplateForWorkout(tt.code)
		if ok != tt.ok || tpl.ID != tt.want {
			t.Errorf("TemplateForWorkout(%q) = %q, %v; want %q, %v", tt.code, tpl.ID, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
generation:
  start_date: "2026-03-02"
  days: 1
  timezone_offset: Z
  slot_times: ["10:00"]
  capacity: 12
templates:
  - id: ride
    duration_min: 45
    level: beginner
trainer_rules:
  - {trainer_id: t-1, shift: morning, cycle_offset: 0}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	res, err := generator.Generate(c.GeneratorConfig())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Sessions) != 1 || res.Sessions[0].StartsAt != "2026-03-02T10:00:00Z" {
		t.Fatalf("unexpected sessions: %+v", res.Sessions)
	}
	if res.Sessions[0].HallID != "h-main" {
		t.Fatalf("expected default hall, got %s", res.Sessions[0].HallID)
	}
}

func TestLoadCatalogRejectsBrokenReferences(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown workout template",
			body: `
generation: {start_date: "2026-03-02", timezone_offset: Z}
workout_types:
  - {code: spin, template_id: missing}
`,
			want: "unknown template",
		},
		{
			name: "rule for unknown trainer",
			body: `
generation: {start_date: "2026-03-02", timezone_offset: Z}
trainers:
  - {id: t-1, name: Anna}
trainer_rules:
  - {trainer_id: t-2, shift: morning, cycle_offset: 0}
`,
			want: "unknown trainer",
		},
		{
			name: "undeclared generation hall",
			body: `
generation: {hall_id: h-2, start_date: "2026-03-02", timezone_offset: Z}
halls:
  - {id: h-main, name: Main}
`,
			want: "not declared",
		},
		{
			name: "bad level",
			body: `
generation: {start_date: "2026-03-02", timezone_offset: Z}
templates:
  - {id: ride, duration_min: 45, level: expert}
`,
			want: "unknown level",
		},
		{
			name: "bad offset",
			body: `
generation: {start_date: "2026-03-02", timezone_offset: "3"}
`,
			want: "timezone offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write catalog: %v", err)
			}
			_, err := LoadCatalog(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

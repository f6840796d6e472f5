package schedule

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/generator"
	"github.com/MarpatOG/VibeRide/internal/models"
)

func TestGeneratorConfigOverrides(t *testing.T) {
	env := newTestEnv(t)

	cfg := env.svc.GeneratorConfig(GenerateOptions{StartDate: "2026-03-02", Days: 3, Capacity: 12})
	if cfg.StartDate != "2026-03-02" || cfg.Days != 3 || cfg.Capacity != 12 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	defaults := env.svc.Catalog().Generation
	if cfg.TimezoneOffset != defaults.TimezoneOffset || cfg.HallID != defaults.HallID {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestPreviewGenerationStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	preview, err := env.svc.PreviewGeneration(ctx, GenerateOptions{Days: 2})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(preview.Sessions) != 12 || preview.Issue != nil {
		t.Fatalf("preview sessions=%d issue=%v", len(preview.Sessions), preview.Issue)
	}
	if preview.Sessions[0].ID != "s-201" || preview.Sessions[0].TrainerID == nil {
		t.Fatalf("first session = %+v", preview.Sessions[0])
	}

	var count int64
	env.db.Model(&models.Session{}).Count(&count)
	if count != 0 {
		t.Fatalf("preview stored %d sessions", count)
	}
}

func TestApplyGenerationReplacesTimetable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.CreateSession(ctx, session("manual", "h-main", "2026-01-01T10:00:00+03:00", 55)); err != nil {
		t.Fatalf("create: %v", err)
	}

	preview, sessions, err := env.svc.ApplyGeneration(ctx, GenerateOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(sessions) != len(preview.Sessions) || len(sessions) == 0 {
		t.Fatalf("stored %d of %d generated sessions", len(sessions), len(preview.Sessions))
	}
	if _, err := env.svc.GetSession(ctx, "manual"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("manual session survived: %v", err)
	}
	if env.bus.last() != events.EventScheduleReplaced {
		t.Fatalf("last event = %q", env.bus.last())
	}
	for _, s := range sessions {
		if !strings.HasSuffix(s.StartsAt, "+03:00") {
			t.Fatalf("session %s start %q lost its offset", s.ID, s.StartsAt)
		}
	}
}

func TestGenerationRejectsBadOptions(t *testing.T) {
	env := newTestEnv(t)

	tests := []GenerateOptions{
		{TimezoneOffset: "Moscow"},
		{StartDate: "09/02/2026"},
		{SlotTimes: []string{"10:00", "09:00"}},
		{SlotTimes: []string{"09:00", "10:00"}},
		{Capacity: generator.MaxCapacity + 1},
	}
	for _, opts := range tests {
		if _, err := env.svc.PreviewGeneration(context.Background(), opts); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("opts %+v: err = %v, want ErrInvalidInput", opts, err)
		}
	}
}

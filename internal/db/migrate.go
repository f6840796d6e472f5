/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/MarpatOG/VibeRide/internal/models"
	"gorm.io/gorm"
)

const overlapMessage = "overlapping sessions are not allowed"

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.Hall{},
		&models.Trainer{},
		&models.Session{},
		&models.Booking{},
	); err != nil {
		return err
	}

	if err := applyPostgresSessionOverlapGuard(database); err != nil {
		return err
	}
	return nil
}

// applyPostgresSessionOverlapGuard backs the application-level slot check
// with a trigger so concurrent writers cannot double-book a hall. Durations
// are rounded up to 30 minute slots like the validator does.
func applyPostgresSessionOverlapGuard(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmt := fmt.Sprintf(`
CREATE OR REPLACE FUNCTION session_slot_range(starts_at text, duration_min integer)
RETURNS tstzrange
LANGUAGE sql
STABLE
AS $$
  SELECT tstzrange(
    starts_at::timestamptz,
    starts_at::timestamptz + make_interval(mins => (CEIL(duration_min / 30.0) * 30)::integer),
    '[)'
  );
$$;

CREATE OR REPLACE FUNCTION prevent_hall_session_overlap()
RETURNS trigger
LANGUAGE plpgsql
AS $$
BEGIN
  IF NEW.duration_min < 1 OR NEW.duration_min > 120 THEN
    RAISE EXCEPTION 'session duration must be between 1 and 120 minutes'
      USING ERRCODE = '23514';
  END IF;

  IF EXISTS (
    SELECT 1
    FROM sessions s
    WHERE s.hall_id = NEW.hall_id
      AND s.id <> NEW.id
      AND session_slot_range(s.starts_at, s.duration_min) && session_slot_range(NEW.starts_at, NEW.duration_min)
  ) THEN
    RAISE EXCEPTION '%s in hall %%', NEW.hall_id
      USING ERRCODE = '23514';
  END IF;

  RETURN NEW;
END;
$$;

DROP TRIGGER IF EXISTS trg_prevent_hall_session_overlap ON sessions;

CREATE TRIGGER trg_prevent_hall_session_overlap
BEFORE INSERT OR UPDATE OF hall_id, starts_at, duration_min
ON sessions
FOR EACH ROW
EXECUTE FUNCTION prevent_hall_session_overlap();
`, overlapMessage)

	if err := database.Exec(stmt).Error; err != nil {
		return fmt.Errorf("apply postgres session overlap guard: %w", err)
	}
	return nil
}

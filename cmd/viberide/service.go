/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"

	"github.com/MarpatOG/VibeRide/internal/config"
	"github.com/MarpatOG/VibeRide/internal/db"
	"github.com/MarpatOG/VibeRide/internal/schedule"
	"github.com/MarpatOG/VibeRide/internal/server"
	"github.com/MarpatOG/VibeRide/internal/storage"
)

// openService connects to the database and builds the schedule service for
// one-shot commands. Mutations are announced on the configured event bus so
// running servers drop stale cache entries.
func openService(ctx context.Context) (*schedule.Service, func(), error) {
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	closers := []func() error{func() error { return db.Close(database) }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("cleanup failed")
			}
		}
	}

	if err := db.Migrate(database); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	bus, closeBus, err := server.NewBroker(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeBus)

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc := schedule.NewService(database, catalog, logger,
		schedule.WithPublisher(bus),
		schedule.WithObjectStore(store),
	)
	if err := svc.SeedCatalog(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("seed catalog: %w", err)
	}
	return svc, cleanup, nil
}

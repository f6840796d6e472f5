/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/schedule"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a timetable from the studio catalog",
	Long:  "Run the deterministic timetable generator. Without --apply the result is only printed.",
	RunE:  runGenerate,
}

var (
	generateStartDate string
	generateDays      int
	generateHall      string
	generateApply     bool
	generatePublish   bool
	generateJSON      bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateStartDate, "start-date", "", "First day, YYYY-MM-DD (default from catalog)")
	generateCmd.Flags().IntVar(&generateDays, "days", 0, "Number of days (default from catalog)")
	generateCmd.Flags().StringVar(&generateHall, "hall", "", "Hall id (default from catalog)")
	generateCmd.Flags().BoolVar(&generateApply, "apply", false, "Replace the stored timetable with the result")
	generateCmd.Flags().BoolVar(&generatePublish, "publish", false, "Publish the timetable to object storage after applying")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print sessions as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generatePublish && !generateApply {
		return fmt.Errorf("--publish requires --apply")
	}
	if err := loadConfig(); err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := schedule.GenerateOptions{
		HallID:    generateHall,
		StartDate: generateStartDate,
		Days:      generateDays,
	}

	var (
		preview  *schedule.Preview
		sessions []models.Session
	)
	if generateApply {
		preview, sessions, err = svc.ApplyGeneration(ctx, opts)
	} else {
		preview, err = svc.PreviewGeneration(ctx, opts)
		if preview != nil {
			sessions = preview.Sessions
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := printSessions(out, sessions, generateJSON); err != nil {
		return err
	}
	for _, warning := range preview.Result.Issues {
		logger.Warn().Str("warning", warning).Msg("generator warning")
	}
	if preview.Issue != nil {
		return fmt.Errorf("generated timetable is invalid: %s", preview.Issue)
	}

	if generateApply {
		fmt.Fprintf(cmd.ErrOrStderr(), "Stored %d sessions\n", len(sessions))
	}
	if generatePublish {
		result, err := svc.PublishSchedule(ctx, schedule.ExportOptions{HallID: generateHall})
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Published %s and %s\n", result.SnapshotLocation, result.ICalLocation)
	}
	return nil
}

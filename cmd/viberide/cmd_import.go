/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MarpatOG/VibeRide/internal/schedule"
)

var importCSVCmd = &cobra.Command{
	Use:   "import-csv <file>",
	Short: "Build a timetable from a CSV template week",
	Long: `Read a template timetable (columns day, slot_start, duration_min,
workout_code, trainer and optionally theme, theme_type, theme_title,
description), lay its days over the horizon and validate the result.
Without --apply nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCSV,
}

var (
	importStartDate string
	importDays      int
	importHall      string
	importApply     bool
	importJSON      bool
)

func init() {
	rootCmd.AddCommand(importCSVCmd)

	importCSVCmd.Flags().StringVar(&importStartDate, "start-date", "", "First day, YYYY-MM-DD (default today in the studio offset)")
	importCSVCmd.Flags().IntVar(&importDays, "days", 0, "Number of days (default from catalog)")
	importCSVCmd.Flags().StringVar(&importHall, "hall", "", "Hall id (default from catalog)")
	importCSVCmd.Flags().BoolVar(&importApply, "apply", false, "Replace the stored timetable with the result")
	importCSVCmd.Flags().BoolVar(&importJSON, "json", false, "Print sessions as JSON")
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.ImportCSV(ctx, f, schedule.ImportOptions{
		HallID:    importHall,
		StartDate: importStartDate,
		Days:      importDays,
	}, importApply)
	if err != nil {
		return err
	}

	if err := printSessions(cmd.OutOrStdout(), result.Sessions, importJSON); err != nil {
		return err
	}
	if result.Issue != nil {
		return fmt.Errorf("imported timetable is invalid: %s", result.Issue)
	}
	if importApply {
		fmt.Fprintf(cmd.ErrOrStderr(), "Stored %d sessions\n", len(result.Sessions))
	}
	return nil
}

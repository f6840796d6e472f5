/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarpatOG/VibeRide/internal/schedule"
)

var exportICalCmd = &cobra.Command{
	Use:   "export-ical",
	Short: "Export a hall's timetable as an iCalendar file",
	RunE:  runExportICal,
}

var (
	exportHall string
	exportFrom string
	exportDays int
	exportLang string
	exportOut  string
)

func init() {
	rootCmd.AddCommand(exportICalCmd)

	exportICalCmd.Flags().StringVar(&exportHall, "hall", "", "Hall id (default from catalog)")
	exportICalCmd.Flags().StringVar(&exportFrom, "from", "", "First day, YYYY-MM-DD (default: every session)")
	exportICalCmd.Flags().IntVar(&exportDays, "days", schedule.DefaultExportDays, "Number of days when --from is set")
	exportICalCmd.Flags().StringVar(&exportLang, "lang", "en", "Text language, ru or en")
	exportICalCmd.Flags().StringVar(&exportOut, "out", "", "Output file, - for stdout (default: generated file name)")
}

func runExportICal(cmd *cobra.Command, args []string) error {
	if exportLang != "ru" && exportLang != "en" {
		return fmt.Errorf("--lang must be ru or en")
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

	opts := schedule.ExportOptions{HallID: exportHall, Days: exportDays, Lang: exportLang}
	if exportFrom != "" {
		offset := svc.Catalog().Generation.TimezoneOffset
		from, err := time.Parse("2006-01-02Z07:00", exportFrom+offset)
		if err != nil {
			return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
		}
		opts.From = from
	}

	result, err := svc.ExportToICal(ctx, opts)
	if err != nil {
		return err
	}

	if exportOut == "-" {
		_, err := cmd.OutOrStdout().Write(result.Data)
		return err
	}
	path := exportOut
	if path == "" {
		path = result.Filename
	}
	if err := os.WriteFile(path, result.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d sessions to %s\n", result.Sessions, path)
	return nil
}

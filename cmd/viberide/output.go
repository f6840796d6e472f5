/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/schedule"
)

// printSessions writes sessions as a table, or as JSON when asJSON is set.
func printSessions(w io.Writer, sessions []models.Session, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schedule.ToSessionPayloads(sessions))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTS AT\tMIN\tTITLE\tTRAINER\tCAPACITY")
	for _, s := range sessions {
		trainer := "-"
		if s.TrainerID != nil {
			trainer = *s.TrainerID
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%d\n", s.ID, s.StartsAt, s.DurationMin, s.TitleEN, trainer, s.Capacity)
	}
	return tw.Flush()
}

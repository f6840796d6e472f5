/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MarpatOG/VibeRide/internal/schedule"
)

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Catalog())
}

// decodeGenerateOptions reads optional generation overrides. An empty body
// keeps every catalog default.
func (a *API) decodeGenerateOptions(w http.ResponseWriter, r *http.Request) (schedule.GenerateOptions, bool) {
	var opts schedule.GenerateOptions
	if err := decodeJSON(r, &opts, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return opts, false
	}
	return opts, a.checkStruct(w, opts)
}

func (a *API) handleScheduleGenerate(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.decodeGenerateOptions(w, r)
	if !ok {
		return
	}

	preview, err := a.svc.PreviewGeneration(r.Context(), opts)
	if err != nil {
		a.writeServiceError(w, r, err, "Schedule")
		return
	}

	resp := map[string]any{
		"valid":    preview.Issue == nil,
		"sessions": schedule.ToSessionPayloads(preview.Sessions),
		"issues":   nonNil(preview.Result.Issues),
	}
	if preview.Issue != nil {
		_, body := issueResponse(preview.Issue)
		resp["issue"] = body
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleScheduleApply(w http.ResponseWriter, r *http.Request) {
	opts, ok := a.decodeGenerateOptions(w, r)
	if !ok {
		return
	}

	preview, sessions, err := a.svc.ApplyGeneration(r.Context(), opts)
	if err != nil {
		a.writeServiceError(w, r, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": schedule.ToSessionPayloads(sessions),
		"issues":   nonNil(preview.Result.Issues),
	})
}

// exportOptions reads hall, from (YYYY-MM-DD in the studio offset), days
// and lang from the query string.
func (a *API) exportOptions(r *http.Request) (schedule.ExportOptions, error) {
	q := r.URL.Query()
	opts := schedule.ExportOptions{HallID: q.Get("hall"), Lang: q.Get("lang")}

	if raw := q.Get("from"); raw != "" {
		offset := a.svc.Catalog().Generation.TimezoneOffset
		from, err := time.Parse("2006-01-02Z07:00", raw+offset)
		if err != nil {
			return opts, fmt.Errorf("from must be YYYY-MM-DD")
		}
		opts.From = from
	}
	if raw := q.Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 || days > 366 {
			return opts, fmt.Errorf("days must be between 1 and 366")
		}
		opts.Days = days
	}
	if opts.Lang != "" && opts.Lang != "ru" && opts.Lang != "en" {
		return opts, fmt.Errorf("lang must be ru or en")
	}
	return opts, nil
}

func (a *API) handleScheduleExportICal(w http.ResponseWriter, r *http.Request) {
	opts, err := a.exportOptions(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	result, err := a.svc.ExportToICal(r.Context(), opts)
	if err != nil {
		a.writeServiceError(w, r, err, "Schedule")
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (a *API) handleSchedulePublish(w http.ResponseWriter, r *http.Request) {
	opts, err := a.exportOptions(r)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	result, err := a.svc.PublishSchedule(r.Context(), opts)
	if err != nil {
		a.writeServiceError(w, r, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

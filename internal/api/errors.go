/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MarpatOG/VibeRide/internal/schedule"
	"github.com/MarpatOG/VibeRide/internal/scheduling"
)

// issueBody is the client facing form of a slot validation issue.
type issueBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// issueResponse maps a validation issue to its status and body.
func issueResponse(issue *scheduling.Issue) (int, issueBody) {
	switch issue.Type {
	case scheduling.IssueInvalidDuration:
		return http.StatusBadRequest, issueBody{
			Error:   "INVALID_DURATION",
			Message: "Session duration must be between 1 and 120 minutes.",
			Details: map[string]any{"sessionId": issue.SessionID, "durationMin": issue.DurationMin},
		}
	case scheduling.IssueInvalidStart:
		return http.StatusBadRequest, issueBody{
			Error:   "INVALID_START_TIME",
			Message: "Session start time is invalid.",
			Details: map[string]any{"sessionId": issue.SessionID, "startsAt": issue.StartsAt},
		}
	default:
		return http.StatusConflict, issueBody{
			Error:   "SLOT_CONFLICT",
			Message: "The hall slot is already occupied.",
			Details: map[string]any{
				"hallId":               issue.HallID,
				"sessionId":            issue.SessionID,
				"conflictingSessionId": issue.ConflictingSessionID,
				"slotStartAt":          issue.SlotStartAt,
			},
		}
	}
}

func writeIssue(w http.ResponseWriter, issue *scheduling.Issue) {
	status, body := issueResponse(issue)
	writeJSON(w, status, body)
}

// writeServiceError maps a schedule service error to a response. resource
// names the entity in the not found message.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	var issueErr *schedule.IssueError
	switch {
	case errors.As(err, &issueErr):
		writeIssue(w, issueErr.Issue)
	case errors.Is(err, schedule.ErrDuplicateSlot):
		writeErrorMessage(w, http.StatusConflict, "SLOT_CONFLICT", "A session already exists for this hall and start time.")
	case errors.Is(err, schedule.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "NOT_FOUND", resource+" not found.")
	case errors.Is(err, schedule.ErrInvalidInput):
		writeErrorMessage(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, schedule.ErrNoObjectStore):
		writeError(w, http.StatusServiceUnavailable, "object_store_unavailable")
	default:
		a.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// checkStruct runs the struct validation tags and writes a 400 on failure.
func (a *API) checkStruct(w http.ResponseWriter, v any) bool {
	if err := a.validate.Struct(v); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "validation_failed", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(fields, "; ")
}

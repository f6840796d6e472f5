/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MarpatOG/VibeRide/internal/models"
	"github.com/MarpatOG/VibeRide/internal/schedule"
)

func (a *API) handleSessionsList(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.svc.ListSessions(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToSessionPayloads(sessions))
}

func (a *API) handleSessionsGet(w http.ResponseWriter, r *http.Request) {
	session, err := a.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToSessionPayload(*session))
}

func (a *API) handleSessionsCreate(w http.ResponseWriter, r *http.Request) {
	var req schedule.SessionPayload
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !a.checkStruct(w, req) {
		return
	}

	created, err := a.svc.CreateSession(r.Context(), req.Model())
	if err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusCreated, schedule.ToSessionPayload(*created))
}

// decodeSessionList reads a JSON array of sessions and validates each entry.
func (a *API) decodeSessionList(w http.ResponseWriter, r *http.Request) ([]models.Session, bool) {
	var req []schedule.SessionPayload
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return nil, false
	}
	sessions := make([]models.Session, len(req))
	for i, p := range req {
		if !a.checkStruct(w, p) {
			return nil, false
		}
		sessions[i] = p.Model()
	}
	return sessions, true
}

func (a *API) handleSessionsReplace(w http.ResponseWriter, r *http.Request) {
	sessions, ok := a.decodeSessionList(w, r)
	if !ok {
		return
	}

	stored, err := a.svc.ReplaceSessions(r.Context(), sessions)
	if err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToSessionPayloads(stored))
}

func (a *API) handleSessionsValidate(w http.ResponseWriter, r *http.Request) {
	sessions, ok := a.decodeSessionList(w, r)
	if !ok {
		return
	}

	if err := a.svc.ValidateSessions(r.Context(), sessions); err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (a *API) handleSessionsPatch(w http.ResponseWriter, r *http.Request) {
	var patch schedule.SessionPatch
	if err := decodeJSON(r, &patch, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !a.checkStruct(w, patch) {
		return
	}

	updated, err := a.svc.PatchSession(r.Context(), chi.URLParam(r, "sessionID"), patch)
	if err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToSessionPayload(*updated))
}

func (a *API) handleSessionsDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		a.writeServiceError(w, r, err, "Session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleHallsList(w http.ResponseWriter, r *http.Request) {
	halls, err := a.svc.ListHalls(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err, "Hall")
		return
	}
	writeJSON(w, http.StatusOK, halls)
}

func (a *API) handleHallOccupancy(w http.ResponseWriter, r *http.Request) {
	hallID := chi.URLParam(r, "hallID")
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date_required")
		return
	}

	slots, err := a.svc.Occupancy(r.Context(), hallID, date)
	if err != nil {
		a.writeServiceError(w, r, err, "Hall")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hallId": hallID,
		"date":   date,
		"slots":  slots,
	})
}

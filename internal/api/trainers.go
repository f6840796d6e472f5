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

func (a *API) handleTrainersList(w http.ResponseWriter, r *http.Request) {
	trainers, err := a.svc.ListTrainers(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err, "Trainer")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToTrainerPayloads(trainers))
}

func (a *API) handleTrainersCreate(w http.ResponseWriter, r *http.Request) {
	var req schedule.TrainerPayload
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !a.checkStruct(w, req) {
		return
	}

	created, err := a.svc.CreateTrainer(r.Context(), req.Model())
	if err != nil {
		a.writeServiceError(w, r, err, "Trainer")
		return
	}
	writeJSON(w, http.StatusCreated, schedule.ToTrainerPayload(*created))
}

func (a *API) handleTrainersReplace(w http.ResponseWriter, r *http.Request) {
	var req []schedule.TrainerPayload
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	trainers := make([]models.Trainer, len(req))
	for i, p := range req {
		if !a.checkStruct(w, p) {
			return
		}
		trainers[i] = p.Model()
	}

	stored, err := a.svc.ReplaceTrainers(r.Context(), trainers)
	if err != nil {
		a.writeServiceError(w, r, err, "Trainer")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToTrainerPayloads(stored))
}

func (a *API) handleTrainersUpdate(w http.ResponseWriter, r *http.Request) {
	var req schedule.TrainerPayload
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !a.checkStruct(w, req) {
		return
	}

	updated, err := a.svc.UpdateTrainer(r.Context(), chi.URLParam(r, "trainerID"), req.Model())
	if err != nil {
		a.writeServiceError(w, r, err, "Trainer")
		return
	}
	writeJSON(w, http.StatusOK, schedule.ToTrainerPayload(*updated))
}

func (a *API) handleTrainersDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteTrainer(r.Context(), chi.URLParam(r, "trainerID")); err != nil {
		a.writeServiceError(w, r, err, "Trainer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/MarpatOG/VibeRide/internal/schedule"
)

// Booking endpoints answer failures with {ok:false, reason} bodies that
// clients switch on.
func writeReason(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]any{"ok": false, "reason": reason})
}

func (a *API) handleBookingsList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeReason(w, http.StatusBadRequest, "userId-required")
		return
	}

	bookings, err := a.svc.ListBookings(r.Context(), userID)
	if err != nil {
		a.writeBookingError(w, r, err)
		return
	}
	out := make([]schedule.BookingPayload, len(bookings))
	for i, b := range bookings {
		out[i] = schedule.ToBookingPayload(b)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleBookingsCreate(w http.ResponseWriter, r *http.Request) {
	var req schedule.BookRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid-body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		switch {
		case req.SessionID == "":
			writeReason(w, http.StatusBadRequest, "sessionId-required")
			return
		case req.UserID == "":
			writeReason(w, http.StatusBadRequest, "userId-required")
			return
		}
		writeReason(w, http.StatusBadRequest, "invalid-body")
		return
	}

	booking, created, err := a.svc.Book(r.Context(), req)
	if err != nil {
		a.writeBookingError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, schedule.ToBookingPayload(*booking))
}

func (a *API) handleBookingsCancel(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeReason(w, http.StatusBadRequest, "sessionId-required")
		return
	}
	if userID == "" {
		writeReason(w, http.StatusBadRequest, "userId-required")
		return
	}

	if err := a.svc.CancelBooking(r.Context(), userID, sessionID); err != nil {
		a.writeBookingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, schedule.ErrAlreadyBooked):
		writeReason(w, http.StatusConflict, "already-booked")
	case errors.Is(err, schedule.ErrSessionFull):
		writeReason(w, http.StatusConflict, "session-full")
	case errors.Is(err, schedule.ErrNotFound):
		writeReason(w, http.StatusNotFound, "not-found")
	case errors.Is(err, schedule.ErrInvalidInput):
		writeReason(w, http.StatusBadRequest, "invalid-body")
	default:
		a.logger.Error().Err(err).Str("path", r.URL.Path).Msg("booking request failed")
		writeReason(w, http.StatusInternalServerError, "internal-error")
	}
}

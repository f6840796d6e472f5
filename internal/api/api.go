/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/schedule"
)

// maxBodyBytes caps JSON request bodies. CSV uploads are not served here.
const maxBodyBytes = 4 << 20

// Config tunes the HTTP layer.
type Config struct {
	// RateLimitRPS is the sustained write rate per client address. Zero
	// disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// API exposes the studio timetable over HTTP.
type API struct {
	svc      *schedule.Service
	bus      events.Broker
	validate *validator.Validate
	limiter  *RateLimiter
	logger   zerolog.Logger
}

// New creates the API. bus feeds the websocket stream and may be nil.
func New(svc *schedule.Service, bus events.Broker, cfg Config, logger zerolog.Logger) *API {
	a := &API{
		svc:      svc,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "api").Logger(),
	}
	if cfg.RateLimitRPS > 0 {
		a.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitTTL)
	}
	return a
}

// Close releases background resources.
func (a *API) Close() {
	a.limiter.Stop()
}

// Routes registers the API routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(a.limitWrites)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", a.handleSessionsList)
			r.Post("/", a.handleSessionsCreate)
			r.Put("/", a.handleSessionsReplace)
			r.Post("/validate", a.handleSessionsValidate)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", a.handleSessionsGet)
				r.Patch("/", a.handleSessionsPatch)
				r.Delete("/", a.handleSessionsDelete)
			})
		})

		r.Route("/halls", func(r chi.Router) {
			r.Get("/", a.handleHallsList)
			r.Get("/{hallID}/occupancy", a.handleHallOccupancy)
		})

		r.Route("/trainers", func(r chi.Router) {
			r.Get("/", a.handleTrainersList)
			r.Post("/", a.handleTrainersCreate)
			r.Put("/", a.handleTrainersReplace)
			r.Patch("/{trainerID}", a.handleTrainersUpdate)
			r.Delete("/{trainerID}", a.handleTrainersDelete)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", a.handleBookingsList)
			r.Post("/", a.handleBookingsCreate)
			r.Delete("/", a.handleBookingsCancel)
		})

		r.Get("/catalog", a.handleCatalog)

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/generate", a.handleScheduleGenerate)
			r.Post("/apply", a.handleScheduleApply)
			r.Get("/export.ics", a.handleScheduleExportICal)
			r.Post("/publish", a.handleSchedulePublish)
		})

		r.Get("/events/ws", a.handleEvents)
	})
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/config"
	"github.com/MarpatOG/VibeRide/internal/db"
	"github.com/MarpatOG/VibeRide/internal/events"
	"github.com/MarpatOG/VibeRide/internal/schedule"
	"github.com/MarpatOG/VibeRide/internal/storage"
)

var fixedNow = time.Date(2026, 2, 8, 21, 30, 0, 0, time.UTC)

type testServer struct {
	api    *API
	bus    *events.Bus
	router chi.Router
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()

	database, err := db.Connect(&config.Config{DBBackend: config.DatabaseSQLite, DBDSN: "file::memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	bus := events.NewBus()
	svc := schedule.NewService(database, catalog, zerolog.Nop(),
		schedule.WithPublisher(bus),
		schedule.WithObjectStore(storage.NewFilesystemStore(t.TempDir(), zerolog.Nop())),
		schedule.WithClock(func() time.Time { return fixedNow }),
	)
	if err := svc.SeedCatalog(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	a := New(svc, bus, cfg, zerolog.Nop())
	t.Cleanup(a.Close)
	r := chi.NewRouter()
	a.Routes(r)
	return &testServer{api: a, bus: bus, router: r}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d: %s", rr.Code, want, rr.Body.String())
	}
}

func sessionJSON(id, startsAt string, durationMin int) string {
	return `{"id":"` + id + `","hallId":"h-main","startsAt":"` + startsAt + `","durationMin":` +
		strconv.Itoa(durationMin) + `,"title":{"ru":"Вайб","en":"Vibe"},"capacity":14}`
}

func TestSessionsCRUD(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodPost, "/api/v1/sessions", sessionJSON("s-1", "2026-02-09T10:00:00+03:00", 55))
	expectStatus(t, rr, http.StatusCreated)
	created := decode[schedule.SessionPayload](t, rr)
	if created.ID != "s-1" || created.Title.EN != "Vibe" || created.Level != "beginner" {
		t.Fatalf("created = %+v", created)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/sessions", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]schedule.SessionPayload](t, rr); len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	rr = s.do(t, http.MethodPatch, "/api/v1/sessions/s-1", `{"durationMin":45,"trainerId":"t-yulia"}`)
	expectStatus(t, rr, http.StatusOK)
	patched := decode[schedule.SessionPayload](t, rr)
	if patched.DurationMin != 45 || patched.TrainerID != "t-yulia" {
		t.Fatalf("patched = %+v", patched)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/sessions/s-1", "")
	expectStatus(t, rr, http.StatusOK)

	rr = s.do(t, http.MethodDelete, "/api/v1/sessions/s-1", "")
	expectStatus(t, rr, http.StatusOK)
	if body := decode[map[string]bool](t, rr); !body["ok"] {
		t.Fatalf("delete body = %v", body)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/sessions/s-1", "")
	expectStatus(t, rr, http.StatusNotFound)
}

func TestSessionsNotFound(t *testing.T) {
	s := newTestServer(t, Config{})

	for _, method := range []string{http.MethodPatch, http.MethodDelete} {
		rr := s.do(t, method, "/api/v1/sessions/missing", `{"durationMin":45}`)
		expectStatus(t, rr, http.StatusNotFound)
		body := decode[map[string]string](t, rr)
		if body["error"] != "NOT_FOUND" || body["message"] != "Session not found." {
			t.Fatalf("%s body = %v", method, body)
		}
	}
}

func TestSessionIssueResponses(t *testing.T) {
	s := newTestServer(t, Config{})
	rr := s.do(t, http.MethodPost, "/api/v1/sessions", sessionJSON("s-1", "2026-02-09T10:00:00+03:00", 55))
	expectStatus(t, rr, http.StatusCreated)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantDetail string
	}{
		{"zero duration", sessionJSON("s-2", "2026-02-09T12:00:00+03:00", 0), http.StatusBadRequest, "INVALID_DURATION", "durationMin"},
		{"long duration", sessionJSON("s-2", "2026-02-09T12:00:00+03:00", 121), http.StatusBadRequest, "INVALID_DURATION", "durationMin"},
		{"bad start", sessionJSON("s-2", "tomorrow", 45), http.StatusBadRequest, "INVALID_START_TIME", "startsAt"},
		{"overlap", sessionJSON("s-2", "2026-02-09T10:30:00+03:00", 45), http.StatusConflict, "SLOT_CONFLICT", "conflictingSessionId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/api/v1/sessions", tt.body)
			expectStatus(t, rr, tt.wantStatus)
			body := decode[issueBody](t, rr)
			if body.Error != tt.wantError || body.Message == "" {
				t.Fatalf("body = %+v", body)
			}
			if _, ok := body.Details[tt.wantDetail]; !ok {
				t.Fatalf("details = %v, want %s", body.Details, tt.wantDetail)
			}
			if body.Details["sessionId"] != "s-2" {
				t.Fatalf("sessionId = %v", body.Details["sessionId"])
			}
		})
	}

	rr = s.do(t, http.MethodPost, "/api/v1/sessions", sessionJSON("s-2", "2026-02-09T10:30:00+03:00", 45))
	body := decode[issueBody](t, rr)
	if body.Details["conflictingSessionId"] != "s-1" || body.Details["hallId"] != "h-main" {
		t.Fatalf("conflict details = %v", body.Details)
	}
}

func TestSessionsRejectMalformedBodies(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodPost, "/api/v1/sessions", `{"id":`)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = s.do(t, http.MethodPost, "/api/v1/sessions", `{"startsAt":"2026-02-09T10:00:00+03:00","durationMin":45}`)
	expectStatus(t, rr, http.StatusBadRequest)
	if body := decode[map[string]string](t, rr); body["error"] != "validation_failed" {
		t.Fatalf("body = %v", body)
	}
}

func TestSessionsValidateAndReplace(t *testing.T) {
	s := newTestServer(t, Config{})

	valid := "[" + sessionJSON("a", "2026-02-09T10:00:00+03:00", 55) + "," +
		sessionJSON("b", "2026-02-09T11:00:00+03:00", 55) + "]"
	rr := s.do(t, http.MethodPost, "/api/v1/sessions/validate", valid)
	expectStatus(t, rr, http.StatusOK)
	if body := decode[map[string]bool](t, rr); !body["valid"] {
		t.Fatalf("body = %v", body)
	}

	clash := "[" + sessionJSON("a", "2026-02-09T10:00:00+03:00", 90) + "," +
		sessionJSON("b", "2026-02-09T11:00:00+03:00", 55) + "]"
	rr = s.do(t, http.MethodPost, "/api/v1/sessions/validate", clash)
	expectStatus(t, rr, http.StatusConflict)

	rr = s.do(t, http.MethodPut, "/api/v1/sessions", valid)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]schedule.SessionPayload](t, rr); len(list) != 2 || list[0].ID != "a" {
		t.Fatalf("replaced = %+v", list)
	}

	rr = s.do(t, http.MethodPut, "/api/v1/sessions", clash)
	expectStatus(t, rr, http.StatusConflict)
	rr = s.do(t, http.MethodGet, "/api/v1/sessions", "")
	if list := decode[[]schedule.SessionPayload](t, rr); len(list) != 2 || list[1].DurationMin != 55 {
		t.Fatalf("rejected replace changed the timetable: %+v", list)
	}
}

func TestHallsAndOccupancy(t *testing.T) {
	s := newTestServer(t, Config{})
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/sessions", sessionJSON("s-1", "2026-02-09T10:00:00+03:00", 55)), http.StatusCreated)

	rr := s.do(t, http.MethodGet, "/api/v1/halls", "")
	expectStatus(t, rr, http.StatusOK)
	if halls := decode[[]map[string]any](t, rr); len(halls) == 0 {
		t.Fatal("no halls")
	}

	rr = s.do(t, http.MethodGet, "/api/v1/halls/h-main/occupancy?date=2026-02-09", "")
	expectStatus(t, rr, http.StatusOK)
	var body struct {
		HallID string                  `json:"hallId"`
		Slots  []schedule.OccupiedSlot `json:"slots"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Slots) != 2 || body.Slots[1].StartsAt != "2026-02-09T10:30:00+03:00" {
		t.Fatalf("slots = %+v", body.Slots)
	}

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/halls/h-main/occupancy", ""), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/halls/h-main/occupancy?date=09.02.2026", ""), http.StatusBadRequest)
}

func TestTrainersEndpoints(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodGet, "/api/v1/trainers", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]schedule.TrainerPayload](t, rr); len(list) == 0 {
		t.Fatal("seeded trainers missing")
	}

	rr = s.do(t, http.MethodPost, "/api/v1/trainers", `{"lastName":"Петров"}`)
	expectStatus(t, rr, http.StatusBadRequest)

	rr = s.do(t, http.MethodPost, "/api/v1/trainers", `{"name":"Олег","lastName":"Петров","bio":{"ru":"Сила","en":"Power"}}`)
	expectStatus(t, rr, http.StatusCreated)
	created := decode[schedule.TrainerPayload](t, rr)
	if !strings.HasPrefix(created.ID, "t-") || created.Bio.EN != "Power" || created.Tags == nil {
		t.Fatalf("created = %+v", created)
	}

	rr = s.do(t, http.MethodPatch, "/api/v1/trainers/"+created.ID, `{"name":"Олег","tags":["power"]}`)
	expectStatus(t, rr, http.StatusOK)
	if updated := decode[schedule.TrainerPayload](t, rr); len(updated.Tags) != 1 {
		t.Fatalf("updated = %+v", updated)
	}

	rr = s.do(t, http.MethodDelete, "/api/v1/trainers/"+created.ID, "")
	expectStatus(t, rr, http.StatusOK)
	rr = s.do(t, http.MethodDelete, "/api/v1/trainers/"+created.ID, "")
	expectStatus(t, rr, http.StatusNotFound)
	if body := decode[map[string]string](t, rr); body["message"] != "Trainer not found." {
		t.Fatalf("body = %v", body)
	}

	rr = s.do(t, http.MethodPut, "/api/v1/trainers", `[{"id":"t-a","name":"A"},{"id":"t-b","name":"B"}]`)
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]schedule.TrainerPayload](t, rr); len(list) != 2 {
		t.Fatalf("replaced = %+v", list)
	}
}

func TestBookingsEndpoints(t *testing.T) {
	s := newTestServer(t, Config{})
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/sessions", sessionJSON("s-1", "2026-02-09T10:00:00+03:00", 55)), http.StatusCreated)

	rr := s.do(t, http.MethodPost, "/api/v1/bookings", `{"userId":"u-1","sessionId":"s-1","bikeNumber":3}`)
	expectStatus(t, rr, http.StatusCreated)
	booking := decode[schedule.BookingPayload](t, rr)
	if booking.SessionID != "s-1" || booking.BikeNumber == nil || *booking.BikeNumber != 3 {
		t.Fatalf("booking = %+v", booking)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/bookings", `{"userId":"u-1","sessionId":"s-1"}`)
	expectStatus(t, rr, http.StatusConflict)
	if body := decode[map[string]any](t, rr); body["ok"] != false || body["reason"] != "already-booked" {
		t.Fatalf("body = %v", body)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/bookings?userId=u-1", "")
	expectStatus(t, rr, http.StatusOK)
	if list := decode[[]schedule.BookingPayload](t, rr); len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	rr = s.do(t, http.MethodDelete, "/api/v1/bookings?userId=u-1", "")
	expectStatus(t, rr, http.StatusBadRequest)
	if body := decode[map[string]any](t, rr); body["reason"] != "sessionId-required" {
		t.Fatalf("body = %v", body)
	}

	expectStatus(t, s.do(t, http.MethodDelete, "/api/v1/bookings?userId=u-1&sessionId=s-1", ""), http.StatusOK)
	rr = s.do(t, http.MethodDelete, "/api/v1/bookings?userId=u-1&sessionId=s-1", "")
	expectStatus(t, rr, http.StatusNotFound)
	if body := decode[map[string]any](t, rr); body["reason"] != "not-found" {
		t.Fatalf("body = %v", body)
	}

	// A canceled booking is reactivated, not recreated.
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings", `{"userId":"u-1","sessionId":"s-1"}`), http.StatusOK)

	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/bookings", ""), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/bookings", `{"userId":"u-2","sessionId":"s-404"}`), http.StatusNotFound)
}

func TestCatalogEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodGet, "/api/v1/catalog", "")
	expectStatus(t, rr, http.StatusOK)
	body := decode[map[string]any](t, rr)
	for _, key := range []string{"generation", "templates", "trainerRules"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("catalog missing %s: %v", key, body)
		}
	}
}

func TestScheduleGenerateAndApply(t *testing.T) {
	s := newTestServer(t, Config{})

	rr := s.do(t, http.MethodPost, "/api/v1/schedule/generate", `{"startDate":"2026-02-09","days":2}`)
	expectStatus(t, rr, http.StatusOK)
	var preview struct {
		Valid    bool                      `json:"valid"`
		Sessions []schedule.SessionPayload `json:"sessions"`
		Issues   []string                  `json:"issues"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !preview.Valid || len(preview.Sessions) != 12 || preview.Issues == nil {
		t.Fatalf("preview = %+v", preview)
	}
	rr = s.do(t, http.MethodGet, "/api/v1/sessions", "")
	if list := decode[[]schedule.SessionPayload](t, rr); len(list) != 0 {
		t.Fatalf("preview stored sessions: %d", len(list))
	}

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/schedule/generate", ""), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/schedule/generate", `{"startDate":"09/02/2026"}`), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/schedule/generate", `{"timezoneOffset":"Moscow"}`), http.StatusBadRequest)

	rr = s.do(t, http.MethodPost, "/api/v1/schedule/apply", `{"startDate":"2026-02-09","days":2}`)
	expectStatus(t, rr, http.StatusOK)
	rr = s.do(t, http.MethodGet, "/api/v1/sessions", "")
	if list := decode[[]schedule.SessionPayload](t, rr); len(list) != 12 {
		t.Fatalf("stored = %d, want 12", len(list))
	}
}

func TestScheduleExportAndPublish(t *testing.T) {
	s := newTestServer(t, Config{})
	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/schedule/apply", `{"startDate":"2026-02-09","days":2}`), http.StatusOK)

	rr := s.do(t, http.MethodGet, "/api/v1/schedule/export.ics?from=2026-02-09&days=1", "")
	expectStatus(t, rr, http.StatusOK)
	if ct := rr.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Fatalf("content type = %s", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "h-main-schedule-2026-02-09-to-2026-02-09.ics") {
		t.Fatalf("disposition = %s", cd)
	}
	if n := strings.Count(rr.Body.String(), "BEGIN:VEVENT"); n != 6 {
		t.Fatalf("events = %d, want 6", n)
	}

	for _, query := range []string{"from=9.2.2026", "days=0", "lang=de"} {
		expectStatus(t, s.do(t, http.MethodGet, "/api/v1/schedule/export.ics?"+query, ""), http.StatusBadRequest)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/schedule/publish", "")
	expectStatus(t, rr, http.StatusOK)
	published := decode[schedule.PublishResult](t, rr)
	if published.SnapshotKey != "schedules/h-main/schedule.json" || published.Sessions != 12 {
		t.Fatalf("published = %+v", published)
	}
}

func TestWriteRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimitRPS: 0.01, RateLimitBurst: 1})

	expectStatus(t, s.do(t, http.MethodPost, "/api/v1/trainers", `{"name":"A"}`), http.StatusCreated)
	rr := s.do(t, http.MethodPost, "/api/v1/trainers", `{"name":"B"}`)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	// Reads are not limited.
	expectStatus(t, s.do(t, http.MethodGet, "/api/v1/trainers", ""), http.StatusOK)
}

func TestResourceOf(t *testing.T) {
	tests := map[string]string{
		"/api/v1/sessions":          "sessions",
		"/api/v1/sessions/s-1":      "sessions",
		"/api/v1/schedule/apply":    "schedule",
		"/api/v1/halls/h/occupancy": "halls",
	}
	for path, want := range tests {
		if got := resourceOf(path); got != want {
			t.Errorf("resourceOf(%s) = %s, want %s", path, got, want)
		}
	}
}

func TestParseEventTypes(t *testing.T) {
	got := parseEventTypes(" session.created, ,booking.changed")
	if len(got) != 2 || got[0] != events.EventSessionCreated || got[1] != events.EventBookingChanged {
		t.Fatalf("parseEventTypes = %v", got)
	}
	if parseEventTypes("") != nil {
		t.Fatal("empty input should yield nil")
	}
}

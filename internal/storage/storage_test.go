package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/MarpatOG/VibeRide/internal/config"
)

func TestFilesystemStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewFilesystemStore(root, zerolog.Nop())
	ctx := context.Background()

	if err := store.Put(ctx, "schedules/h-main.ics", []byte("BEGIN:VCALENDAR")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "schedules/h-main.ics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "BEGIN:VCALENDAR" {
		t.Fatalf("got %q", got)
	}
	if loc := store.Location("schedules/h-main.ics"); loc != filepath.Join(root, "schedules", "h-main.ics") {
		t.Fatalf("location = %s", loc)
	}
}

func TestFilesystemStoreKeepsKeysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := NewFilesystemStore(root, zerolog.Nop())

	if err := store.Put(context.Background(), "../../escape.json", []byte("{}")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if loc := store.Location("../../escape.json"); !strings.HasPrefix(loc, root) {
		t.Fatalf("key escaped root: %s", loc)
	}
	if err := store.Put(context.Background(), "/", nil); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

func TestFilesystemStoreMissingKey(t *testing.T) {
	store := NewFilesystemStore(t.TempDir(), zerolog.Nop())
	if _, err := store.Get(context.Background(), "nope.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNewUsesFilesystemWithoutBucket(t *testing.T) {
	store, err := New(context.Background(), &config.Config{ExportDir: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := store.(*FilesystemStore); !ok {
		t.Fatalf("store = %T, want *FilesystemStore", store)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.ics":  "text/calendar; charset=utf-8",
		"a.JSON": "application/json",
		"a":      "application/octet-stream",
	}
	for key, want := range tests {
		if got := contentType(key); got != want {
			t.Errorf("contentType(%q) = %q, want %q", key, got, want)
		}
	}
}

// fakeS3 is a minimal path-style S3 endpoint.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3StoreAgainstPathStyleEndpoint(t *testing.T) {
	backend := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	ctx := context.Background()
	store, err := NewS3Store(ctx, S3Config{
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Region:          "us-east-1",
		Bucket:          "studio",
		Endpoint:        srv.URL,
		UsePathStyle:    true,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new s3 store: %v", err)
	}

	if err := store.Put(ctx, "schedules/h-main.json", []byte(`{"sessions":[]}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ct := backend.types["/studio/schedules/h-main.json"]; ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	got, err := store.Get(ctx, "schedules/h-main.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"sessions":[]}` {
		t.Fatalf("got %q", got)
	}

	if _, err := store.Get(ctx, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if loc := store.Location("schedules/h-main.json"); loc != srv.URL+"/studio/schedules/h-main.json" {
		t.Fatalf("location = %s", loc)
	}
}

func TestS3StoreLocationWithoutEndpoint(t *testing.T) {
	s := &S3Store{cfg: S3Config{Bucket: "studio", Region: "eu-central-1"}}
	if got := s.Location("a.ics"); got != "https://studio.s3.eu-central-1.amazonaws.com/a.ics" {
		t.Fatalf("location = %s", got)
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdfpipe/server/internal/config"
	"github.com/pdfpipe/server/internal/handlers"
	"github.com/pdfpipe/server/internal/jobkind"
	"github.com/pdfpipe/server/internal/queue"
	"github.com/pdfpipe/server/internal/ratelimit"
	"github.com/pdfpipe/server/internal/tempstore"
)

func newTestServer(t *testing.T) (*Server, *queue.Manager) {
	t.Helper()
	base := t.TempDir()
	store, err := tempstore.New(filepath.Join(base, "uploads"), filepath.Join(base, "downloads"))
	if err != nil {
		t.Fatal(err)
	}
	manager := queue.NewManager(queue.Config{Concurrency: 2, MaxPerUser: 2}, store, zerolog.Nop())
	deps := &handlers.Deps{Store: store}
	cfg := &config.Config{PDFProvider: "pdfcpu"}
	return NewServer(manager, deps, handlers.NewRegistry(), cfg), manager
}

func TestHealth_ReportsProviderFromConfig(t *testing.T) {
	s, _ := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["provider"] != "pdfcpu" {
		t.Fatalf("expected provider pdfcpu, got %q", body["provider"])
	}
}

func TestStatus_UnknownJobReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatus_QueuedJobOmitsDownloadURL(t *testing.T) {
	s, manager := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	rec := manager.Enqueue(jobkind.Merge, jobkind.NewMergePayload("anon", []string{"a.pdf", "b.pdf"}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+rec.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if _, present := body["downloadUrl"]; present {
		t.Fatal("expected no downloadUrl for a still-queued job")
	}
	if body["status"] != string(jobkind.StatusQueued) {
		t.Fatalf("expected status queued, got %v", body["status"])
	}
}

func TestStatus_SucceededJobIncludesDownloadURL(t *testing.T) {
	s, manager := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	rec := manager.Enqueue(jobkind.Merge, jobkind.NewMergePayload("anon", []string{"a.pdf", "b.pdf"}))
	if _, ok := manager.Dispatch(); !ok {
		t.Fatal("expected dispatch to succeed")
	}
	manager.Finish(rec.ID, queue.Outcome{Status: jobkind.StatusSucceeded, OutputPath: "merged.pdf"})

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+rec.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["downloadUrl"] != "/jobs/download/"+rec.ID {
		t.Fatalf("expected a download URL, got %v", body["downloadUrl"])
	}
}

func TestDownload_UnknownJobReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	req := httptest.NewRequest(http.MethodGet, "/jobs/download/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDownload_NotYetSucceededReturns400(t *testing.T) {
	s, manager := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	rec := manager.Enqueue(jobkind.Merge, jobkind.NewMergePayload("anon", []string{"a.pdf", "b.pdf"}))

	req := httptest.NewRequest(http.MethodGet, "/jobs/download/"+rec.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a not-yet-succeeded job, got %d", w.Code)
	}
}

func TestPDFEnqueue_RateLimitReturns429(t *testing.T) {
	s, _ := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 1), nil)

	first := httptest.NewRequest(http.MethodPost, "/pdf/merge", nil)
	first.Header.Set("x-api-key", "same-client")
	router.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/pdf/merge", nil)
	second.Header.Set("x-api-key", "same-client")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, second)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the per-client burst is exhausted, got %d", w.Code)
	}
}

func TestPDFEnqueue_UnknownOpReturns400(t *testing.T) {
	s, _ := newTestServer(t)
	router := NewRouter(s, ratelimit.New(time.Minute, 100), nil)

	req := httptest.NewRequest(http.MethodPost, "/pdf/not-a-real-op", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unrecognized operation, got %d", w.Code)
	}
}

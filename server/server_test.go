package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/clip-courier/backend/clipsync"
	"github.com/onnwee/clip-courier/backend/telemetry"
)

func TestHealthz(t *testing.T) {
	mux := NewMux(clipsync.NewRegistry())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestReadyzFollowsRegistry(t *testing.T) {
	registry := clipsync.NewRegistry()
	mux := NewMux(registry)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first cycle = %d, want 503", rec.Code)
	}

	registry.RecordCycle("alice", time.Now(), clipsync.CycleStats{}, 0, nil)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status after first cycle = %d, want 200", rec.Code)
	}
}

func TestStatusReportsBroadcasters(t *testing.T) {
	registry := clipsync.NewRegistry()
	registry.RecordCycle("alice", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		clipsync.CycleStats{Fetched: 3, Posted: 2, Suppressed: 1}, 2, nil)
	mux := NewMux(registry)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Broadcasters []clipsync.BroadcasterStatus `json:"broadcasters"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Broadcasters) != 1 {
		t.Fatalf("len(broadcasters) = %d, want 1", len(body.Broadcasters))
	}
	got := body.Broadcasters[0]
	if got.Login != "alice" || got.TotalPosted != 2 || got.TotalSuppressed != 1 || got.ClipsTracked != 2 {
		t.Errorf("status = %+v", got)
	}
	if got.LastError != "" {
		t.Errorf("last_error = %q, want empty", got.LastError)
	}
}

func TestCorrelationIDHeader(t *testing.T) {
	mux := NewMux(clipsync.NewRegistry())

	// Supplied header is reused.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("X-Correlation-ID = %q, want corr-123", got)
	}

	// Missing header gets a generated one.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID missing for request without one")
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	telemetry.Init()
	mux := NewMux(clipsync.NewRegistry())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

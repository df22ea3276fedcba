package server

import (
	"encoding/json"
	"net/http"

	"github.com/onnwee/clip-courier/backend/clipsync"
)

// Handlers serves the health/status endpoints backed by the sync registry.
type Handlers struct {
	registry *clipsync.Registry
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports ready once at least one broadcaster job has completed
// a cycle and registered itself.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.registry == nil || h.registry.Len() == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "not_ready",
			"error":  "no broadcaster jobs have reported yet",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus returns the per-broadcaster sync summary.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var statuses []clipsync.BroadcasterStatus
	if h.registry != nil {
		statuses = h.registry.Snapshot()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"broadcasters": statuses})
}

package clipsync

import (
	"sync"
	"time"
)

// BroadcasterStatus is a point-in-time summary of one broadcaster's job,
// served by the /status endpoint.
type BroadcasterStatus struct {
	Login           string    `json:"login"`
	LastCycleAt     time.Time `json:"last_cycle_at"`
	LastError       string    `json:"last_error,omitempty"`
	ClipsTracked    int       `json:"clips_tracked"`
	TotalPosted     int       `json:"total_posted"`
	TotalEdited     int       `json:"total_edited"`
	TotalSuppressed int       `json:"total_suppressed"`
}

// Registry aggregates per-broadcaster job status for the HTTP surface.
// Jobs for different broadcasters update it concurrently.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]BroadcasterStatus
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]BroadcasterStatus)}
}

// RecordCycle folds one cycle's outcome into the broadcaster's status.
func (r *Registry) RecordCycle(login string, at time.Time, stats CycleStats, tracked int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.entries[login]
	st.Login = login
	st.LastCycleAt = at
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	st.ClipsTracked = tracked
	st.TotalPosted += stats.Posted
	st.TotalEdited += stats.Edited
	st.TotalSuppressed += stats.Suppressed
	r.entries[login] = st
}

// Snapshot returns a copy of all broadcaster statuses.
func (r *Registry) Snapshot() []BroadcasterStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BroadcasterStatus, 0, len(r.entries))
	for _, st := range r.entries {
		out = append(out, st)
	}
	return out
}

// Len returns the number of tracked broadcasters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

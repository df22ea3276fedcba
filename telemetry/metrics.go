// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	SyncCycles      prometheus.Counter
	SyncCycleErrors prometheus.Counter
	ClipsFetched    prometheus.Counter
	ClipsPosted     prometheus.Counter
	ClipsEdited     prometheus.Counter
	ClipsSuppressed prometheus.Counter
	DeliveryErrors  prometheus.Counter
	HelixRequests   prometheus.Counter

	// Histograms (seconds)
	CycleDuration prometheus.Observer

	// Gauges
	TrackedBroadcasters prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SyncCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_cycles_total", Help: "Number of clip sync cycles started"})
		SyncCycleErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_cycle_errors_total", Help: "Number of clip sync cycles that failed"})
		ClipsFetched = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_clips_fetched_total", Help: "Number of clips returned by window fetches"})
		ClipsPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_clips_posted_total", Help: "Number of new clip notifications sent"})
		ClipsEdited = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_clips_edited_total", Help: "Number of clip notifications edited after title changes"})
		ClipsSuppressed = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_clips_suppressed_total", Help: "Number of clips skipped by the untitled-suppression policy"})
		DeliveryErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_delivery_errors_total", Help: "Number of failed webhook sends or edits"})
		HelixRequests = promauto.NewCounter(prometheus.CounterOpts{Name: "clipsync_helix_requests_total", Help: "Number of Twitch Helix API requests issued"})
		CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "clipsync_cycle_duration_seconds", Help: "Sync cycle duration seconds", Buckets: prometheus.DefBuckets})
		TrackedBroadcasters = promauto.NewGauge(prometheus.GaugeOpts{Name: "clipsync_tracked_broadcasters", Help: "Number of broadcasters with running sync jobs"})
	})
}

// Nil-safe recorders so core packages can report metrics without caring
// whether Init ran (it doesn't in unit tests).

func IncCycle() {
	if SyncCycles != nil {
		SyncCycles.Inc()
	}
}

func IncCycleError() {
	if SyncCycleErrors != nil {
		SyncCycleErrors.Inc()
	}
}

func AddClipsFetched(n int) {
	if ClipsFetched != nil {
		ClipsFetched.Add(float64(n))
	}
}

func IncPosted() {
	if ClipsPosted != nil {
		ClipsPosted.Inc()
	}
}

func IncEdited() {
	if ClipsEdited != nil {
		ClipsEdited.Inc()
	}
}

func IncSuppressed() {
	if ClipsSuppressed != nil {
		ClipsSuppressed.Inc()
	}
}

func IncDeliveryError() {
	if DeliveryErrors != nil {
		DeliveryErrors.Inc()
	}
}

func IncHelixRequest() {
	if HelixRequests != nil {
		HelixRequests.Inc()
	}
}

// SetTrackedBroadcasters records how many sync jobs are running.
func SetTrackedBroadcasters(n int) {
	if TrackedBroadcasters != nil {
		TrackedBroadcasters.Set(float64(n))
	}
}

// ObserveCycleDuration records one cycle's wall time.
func ObserveCycleDuration(d time.Duration) {
	if CycleDuration != nil {
		CycleDuration.Observe(d.Seconds())
	}
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}

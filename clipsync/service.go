package clipsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/onnwee/clip-courier/backend/telemetry"
)

// CycleRunner runs one synchronization cycle. Satisfied by *Engine.
type CycleRunner interface {
	Run(ctx context.Context, spec BroadcasterSpec, st *State) (CycleStats, error)
}

// Service re-invokes a broadcaster's sync cycle on a fixed period, reusing
// one state store across invocations so edit reconciliation works. Cycles for
// the same broadcaster never overlap; different broadcasters run their own
// Service instances concurrently.
type Service struct {
	Runner   CycleRunner
	Interval time.Duration
	Clock    clockwork.Clock
	Registry *Registry
}

func (s *Service) clock() clockwork.Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return clockwork.NewRealClock()
}

// Run loops until ctx is cancelled. An immediate first cycle, then one per
// tick. Any error inside a cycle is caught at the cycle boundary, logged, and
// the loop continues; a failure never terminates the timer.
func (s *Service) Run(ctx context.Context, spec BroadcasterSpec) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	telemetry.LoggerWithCorr(ctx).Info("clip sync job starting",
		"broadcaster", spec.Login,
		"interval", interval,
		"lookback", spec.Lookback.String())

	st := NewState()
	s.runCycle(ctx, spec, st)

	ticker := s.clock().NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			telemetry.LoggerWithCorr(ctx).Info("clip sync job stopped", "broadcaster", spec.Login)
			return
		case <-ticker.Chan():
			s.runCycle(ctx, spec, st)
		}
	}
}

// RunOnce performs a single cycle against a fresh state store. Used by the
// one-shot mode; the error (e.g. a ConfigError) is surfaced to the caller.
func (s *Service) RunOnce(ctx context.Context, spec BroadcasterSpec) error {
	_, err := s.runCycle(ctx, spec, NewState())
	return err
}

func (s *Service) runCycle(ctx context.Context, spec BroadcasterSpec, st *State) (CycleStats, error) {
	cctx := telemetry.WithCorrelation(ctx, uuid.New().String())
	stats, err := s.Runner.Run(cctx, spec, st)
	if err != nil {
		telemetry.IncCycleError()
		telemetry.LoggerWithCorr(cctx).Error("sync cycle failed", "broadcaster", spec.Login, "err", err)
	}
	if s.Registry != nil {
		s.Registry.RecordCycle(spec.Login, s.clock().Now(), stats, st.Len(), err)
	}
	return stats, err
}

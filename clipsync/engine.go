// Package clipsync implements the clip synchronization engine: windowed clip
// discovery for a tracked broadcaster, cross-reference enrichment through
// batched Helix lookups, and an idempotent post-or-edit decision per clip
// backed by an in-memory state store.
package clipsync

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/onnwee/clip-courier/backend/telemetry"
	"github.com/onnwee/clip-courier/backend/twitchapi"
)

// TwitchAPI is the slice of the Helix surface the engine needs.
type TwitchAPI interface {
	GetUserByLogin(ctx context.Context, login string) (*twitchapi.User, error)
	UsersByID(ctx context.Context, ids []string) ([]twitchapi.User, error)
	VideosByID(ctx context.Context, ids []string) ([]twitchapi.Video, error)
	GamesByID(ctx context.Context, ids []string) ([]twitchapi.Game, error)
	Clips(ctx context.Context, broadcasterID string, since time.Time) ([]twitchapi.Clip, error)
}

// Sink delivers composed notifications. Send returns an opaque handle usable
// for later edits of the same message.
type Sink interface {
	Send(ctx context.Context, msg Message) (handle string, err error)
	Edit(ctx context.Context, handle, content string) error
}

// Options are the per-broadcaster sync options supplied each cycle.
type Options struct {
	// SuppressUntitled skips clips whose title still equals the source VOD
	// title, the heuristic for "clip created before the stream segment was
	// given a real title".
	SuppressUntitled bool
	// ShowCreatedDate appends the clip creation timestamp to the message.
	ShowCreatedDate bool
}

// BroadcasterSpec identifies one tracked broadcaster and its window/options.
type BroadcasterSpec struct {
	Login    string
	Lookback Lookback
	Options  Options
}

// CycleStats summarizes one synchronization cycle.
type CycleStats struct {
	Fetched    int
	Posted     int
	Edited     int
	Suppressed int
}

// Engine runs synchronization cycles for one broadcaster. The Helix client
// may be shared across engines; the sink targets one webhook.
type Engine struct {
	API   TwitchAPI
	Sink  Sink
	Clock clockwork.Clock
}

func (e *Engine) clock() clockwork.Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return clockwork.NewRealClock()
}

// Run performs one synchronization cycle: resolve the broadcaster, fetch the
// clip window, resolve cross-references concurrently, then walk the clips in
// upstream order deciding skip/post/edit against the state store. The state
// store must be owned by a single broadcaster job; mutations are sequential
// within one invocation.
//
// A broadcaster login resolving to zero records completes the cycle as a
// no-op (warning, not error). A failed webhook delivery for one clip is
// logged and does not abort the remaining clips.
func (e *Engine) Run(ctx context.Context, spec BroadcasterSpec, st *State) (CycleStats, error) {
	log := telemetry.LoggerWithCorr(ctx).With("broadcaster", spec.Login)
	ctx, span := telemetry.StartSpan(ctx, "clipsync", "clipsync.run",
		attribute.String("broadcaster", spec.Login),
		attribute.String("lookback", spec.Lookback.String()))
	defer span.End()

	stats := CycleStats{}
	start := e.clock().Now()
	defer func() { telemetry.ObserveCycleDuration(e.clock().Since(start)) }()
	telemetry.IncCycle()

	user, err := e.API.GetUserByLogin(ctx, spec.Login)
	if err != nil {
		err = wrapLookup("broadcaster", err)
		telemetry.RecordError(span, err)
		return stats, err
	}
	if user == nil {
		log.Warn("broadcaster not found, skipping cycle")
		return stats, nil
	}

	windowStart := spec.Lookback.Start(start)
	clips, err := e.API.Clips(ctx, user.ID, windowStart)
	if err != nil {
		err = wrapLookup("clips", err)
		telemetry.RecordError(span, err)
		return stats, err
	}
	stats.Fetched = len(clips)
	telemetry.AddClipsFetched(len(clips))
	span.SetAttributes(attribute.Int("clips", len(clips)))
	if len(clips) == 0 {
		log.Debug("no clips in window", "window_start", windowStart)
		return stats, nil
	}

	users, videos, games, err := e.resolveReferences(ctx, clips)
	if err != nil {
		telemetry.RecordError(span, err)
		return stats, err
	}

	for _, clip := range clips {
		if spec.Options.SuppressUntitled {
			if v, ok := videos[clip.VideoID]; ok && v.Title == clip.Title {
				stats.Suppressed++
				telemetry.IncSuppressed()
				continue
			}
		}
		msg := composeMessage(clip, users, videos, games, spec.Options)
		if rec, ok := st.Lookup(clip.ID); ok {
			if rec.Content == msg.Content {
				continue
			}
			// The clip was posted before its title stabilized; reconcile the
			// existing message instead of posting a duplicate.
			if err := e.Sink.Edit(ctx, rec.Handle, msg.Content); err != nil {
				derr := &DeliveryError{ClipID: clip.ID, Err: err}
				log.Error("webhook edit failed", "clip", clip.ID, "err", derr)
				telemetry.IncDeliveryError()
				continue
			}
			st.Record(clip.ID, MessageRecord{Content: msg.Content, Handle: rec.Handle})
			stats.Edited++
			telemetry.IncEdited()
			continue
		}
		handle, err := e.Sink.Send(ctx, msg)
		if err != nil {
			derr := &DeliveryError{ClipID: clip.ID, Err: err}
			log.Error("webhook send failed", "clip", clip.ID, "err", derr)
			telemetry.IncDeliveryError()
			continue
		}
		st.Record(clip.ID, MessageRecord{Content: msg.Content, Handle: handle})
		stats.Posted++
		telemetry.IncPosted()
	}

	log.Info("cycle complete",
		"fetched", stats.Fetched,
		"posted", stats.Posted,
		"edited", stats.Edited,
		"suppressed", stats.Suppressed)
	telemetry.SetSpanSuccess(span)
	return stats, nil
}

// resolveReferences resolves the distinct creator/video/game id sets across
// the fetched clips. The three lookups run concurrently and all run to
// completion; the cycle fails if any of them failed.
func (e *Engine) resolveReferences(ctx context.Context, clips []twitchapi.Clip) (map[string]twitchapi.User, map[string]twitchapi.Video, map[string]twitchapi.Game, error) {
	creatorIDs := make([]string, 0, len(clips))
	videoIDs := make([]string, 0, len(clips))
	gameIDs := make([]string, 0, len(clips))
	for _, c := range clips {
		creatorIDs = append(creatorIDs, c.CreatorID)
		videoIDs = append(videoIDs, c.VideoID)
		gameIDs = append(gameIDs, c.GameID)
	}

	users := map[string]twitchapi.User{}
	videos := map[string]twitchapi.Video{}
	games := map[string]twitchapi.Game{}

	// A plain Group (no shared cancellation) so one failed resolution does
	// not interrupt the other two mid-flight.
	var g errgroup.Group
	g.Go(func() error {
		res, err := e.API.UsersByID(ctx, creatorIDs)
		if err != nil {
			return wrapLookup("users", err)
		}
		for _, u := range res {
			users[u.ID] = u
		}
		return nil
	})
	g.Go(func() error {
		res, err := e.API.VideosByID(ctx, videoIDs)
		if err != nil {
			return wrapLookup("videos", err)
		}
		for _, v := range res {
			videos[v.ID] = v
		}
		return nil
	})
	g.Go(func() error {
		res, err := e.API.GamesByID(ctx, gameIDs)
		if err != nil {
			return wrapLookup("games", err)
		}
		for _, gm := range res {
			games[gm.ID] = gm
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, &EnrichmentError{Err: err}
	}
	return users, videos, games, nil
}

func wrapLookup(op string, err error) error {
	if errors.Is(err, twitchapi.ErrAuth) {
		return &AuthError{Err: err}
	}
	return &UpstreamLookupError{Op: op, Err: err}
}

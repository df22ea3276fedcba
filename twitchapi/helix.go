// Package twitchapi contains the Twitch Helix helpers needed for clip
// mirroring: user id resolution, listing clips in a time window, and the
// batched user/video/game lookups used for cross-reference enrichment, all
// using an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/onnwee/clip-courier/backend/telemetry"
)

// BatchLimit is the maximum number of ids Helix accepts per lookup call.
const BatchLimit = 100

// ErrTooManyIDs is returned when a single lookup call would exceed BatchLimit.
// The exported batched methods chunk transparently and never hit this.
var ErrTooManyIDs = errors.New("too many ids for one helix call")

// Box art URL templates carry {width}x{height} placeholders; embeds use a
// fixed portrait size.
const (
	boxArtWidth  = "600"
	boxArtHeight = "800"
)

// User is a Helix user record.
type User struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Video is a Helix video (VOD) record, reduced to what enrichment needs.
type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Game is a Helix game/category record. BoxArtURL has its size placeholders
// already substituted.
type Game struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

// Clip is a Helix clip record.
type Clip struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	BroadcasterName string    `json:"broadcaster_name"`
	CreatorID       string    `json:"creator_id"`
	CreatorName     string    `json:"creator_name"`
	VideoID         string    `json:"video_id"`
	GameID          string    `json:"game_id"`
	Language        string    `json:"language"`
	ViewCount       int       `json:"view_count"`
	CreatedAt       time.Time `json:"created_at"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	Duration        float64   `json:"duration"`
	VODOffset       *int      `json:"vod_offset"`
	IsFeatured      bool      `json:"is_featured"`
}

// HelixClient provides the lookups needed for clip discovery and enrichment.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// get issues an authenticated Helix GET and decodes the response envelope
// into out (a pointer to the data slice type).
func (hc *HelixClient) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.twitch.tv/helix/"+endpoint, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	telemetry.IncHelixRequest()
	resp, err := hc.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("helix %s request failed: %s: %s", endpoint, resp.Status, string(b))
	}
	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("helix %s decode: %w", endpoint, err)
	}
	return nil
}

// GetUserByLogin resolves a login name to its user record. A login that
// resolves to zero records returns (nil, nil); the caller decides whether
// that is a warning or an error.
func (hc *HelixClient) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	if login == "" {
		return nil, fmt.Errorf("login empty")
	}
	q := url.Values{}
	q.Set("login", login)
	var users []User
	if err := hc.get(ctx, "users", q, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// UsersByID resolves user ids to user records. Input ids are deduplicated and
// chunked into calls of at most BatchLimit; results are concatenated. An empty
// set returns an empty list without a network call.
func (hc *HelixClient) UsersByID(ctx context.Context, ids []string) ([]User, error) {
	out := []User{}
	for _, batch := range chunk(dedupe(ids)) {
		var users []User
		if err := hc.getByIDs(ctx, "users", batch, &users); err != nil {
			return nil, err
		}
		out = append(out, users...)
	}
	return out, nil
}

// VideosByID resolves video ids to video records, deduplicated and chunked
// like UsersByID.
func (hc *HelixClient) VideosByID(ctx context.Context, ids []string) ([]Video, error) {
	out := []Video{}
	for _, batch := range chunk(dedupe(ids)) {
		var videos []Video
		if err := hc.getByIDs(ctx, "videos", batch, &videos); err != nil {
			return nil, err
		}
		out = append(out, videos...)
	}
	return out, nil
}

// GamesByID resolves game ids to game records, deduplicated and chunked like
// UsersByID. Box art URL templates are resolved to concrete dimensions.
func (hc *HelixClient) GamesByID(ctx context.Context, ids []string) ([]Game, error) {
	out := []Game{}
	for _, batch := range chunk(dedupe(ids)) {
		var games []Game
		if err := hc.getByIDs(ctx, "games", batch, &games); err != nil {
			return nil, err
		}
		for i := range games {
			games[i].BoxArtURL = strings.NewReplacer("{width}", boxArtWidth, "{height}", boxArtHeight).Replace(games[i].BoxArtURL)
		}
		out = append(out, games...)
	}
	return out, nil
}

// Clips lists clips created at or after since for a broadcaster, in the order
// returned by Helix (newest first). A single page of up to BatchLimit results;
// no pagination beyond the first page.
func (hc *HelixClient) Clips(ctx context.Context, broadcasterID string, since time.Time) ([]Clip, error) {
	if broadcasterID == "" {
		return nil, fmt.Errorf("broadcasterID empty")
	}
	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)
	q.Set("first", fmt.Sprintf("%d", BatchLimit))
	q.Set("started_at", since.UTC().Format(time.RFC3339))
	var clips []Clip
	if err := hc.get(ctx, "clips", q, &clips); err != nil {
		return nil, err
	}
	return clips, nil
}

func (hc *HelixClient) getByIDs(ctx context.Context, endpoint string, ids []string, out any) error {
	if len(ids) > BatchLimit {
		return fmt.Errorf("%w: %s got %d", ErrTooManyIDs, endpoint, len(ids))
	}
	q := url.Values{}
	for _, id := range ids {
		q.Add("id", id)
	}
	return hc.get(ctx, endpoint, q, out)
}

// dedupe returns the distinct non-empty ids, preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// chunk splits ids into slices of at most BatchLimit.
func chunk(ids []string) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var out [][]string
	for len(ids) > BatchLimit {
		out = append(out, ids[:BatchLimit])
		ids = ids[BatchLimit:]
	}
	return append(out, ids)
}

package clipsync_test

import (
	"context"
	"strings"
	"testing"

	"github.com/onnwee/clip-courier/backend/clipsync"
	"github.com/onnwee/clip-courier/backend/notify"
	"github.com/onnwee/clip-courier/backend/testutil"
	"github.com/onnwee/clip-courier/backend/twitchapi"
)

// TestEngineAgainstMockServers runs full cycles through the real Helix client
// and webhook sink against the mock servers: token exchange, broadcaster
// resolution, window fetch, enrichment, post, and the follow-up edit.
func TestEngineAgainstMockServers(t *testing.T) {
	twitch := testutil.NewMockTwitchServer(t)
	twitch.MockOAuthTokenResponse("app-token", 3600)
	twitch.MockUsersResponse([]map[string]any{
		{"id": "b1", "login": "alice", "display_name": "Alice"},
		{"id": "u1", "login": "bob", "display_name": "Bob", "profile_image_url": "https://static.twitch.tv/bob.png"},
	})
	twitch.MockVideosResponse([]map[string]any{
		{"id": "v1", "title": "Tuesday Stream"},
	})
	twitch.MockGamesResponse([]map[string]any{
		{"id": "g1", "name": "Game X", "box_art_url": "https://static.twitch.tv/g1-{width}x{height}.jpg"},
	})
	clipJSON := func(title string) []map[string]any {
		return []map[string]any{{
			"id":               "c1",
			"url":              "https://clips.twitch.tv/c1",
			"title":            title,
			"broadcaster_name": "Alice",
			"creator_id":       "u1",
			"creator_name":     "bob",
			"video_id":         "v1",
			"game_id":          "g1",
			"language":         "en",
			"view_count":       7,
			"created_at":       "2024-06-01T18:30:00Z",
			"duration":         28.5,
			"thumbnail_url":    "https://clips-media.twitch.tv/c1.jpg",
		}}
	}
	twitch.MockClipsResponse(clipJSON("Great Play"))

	webhookSrv := testutil.NewMockWebhookServer(t, 5000)
	sink, err := notify.NewWebhookSink("https://discord.com/api/webhooks/42/token", webhookSrv.Client())
	if err != nil {
		t.Fatalf("NewWebhookSink() error: %v", err)
	}

	helix := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: "id", ClientSecret: "secret", HTTPClient: twitch.Client()},
		ClientID:       "id",
		HTTPClient:     twitch.Client(),
	}

	lb, err := clipsync.ParseLookback("1d")
	if err != nil {
		t.Fatalf("ParseLookback() error: %v", err)
	}
	spec := clipsync.BroadcasterSpec{Login: "alice", Lookback: lb, Options: clipsync.Options{ShowCreatedDate: true}}
	eng := &clipsync.Engine{API: helix, Sink: sink}
	st := clipsync.NewState()

	stats, err := eng.Run(context.Background(), spec, st)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Fetched != 1 || stats.Posted != 1 {
		t.Fatalf("stats = %+v, want one fetched, one posted", stats)
	}
	if len(webhookSrv.Creates) != 1 {
		t.Fatalf("creates = %d, want 1", len(webhookSrv.Creates))
	}
	create := webhookSrv.Creates[0]
	content, _ := create["content"].(string)
	if !strings.Contains(content, "Great Play") || !strings.Contains(content, "https://clips.twitch.tv/c1") {
		t.Errorf("content = %q, want title and clip url", content)
	}
	if create["username"] != "bob" {
		t.Errorf("username = %v, want clipper name", create["username"])
	}
	if create["avatar_url"] != "https://static.twitch.tv/bob.png" {
		t.Errorf("avatar_url = %v, want clipper profile image", create["avatar_url"])
	}
	embeds, _ := create["embeds"].([]any)
	if len(embeds) != 1 {
		t.Fatalf("embeds = %v, want one embed", create["embeds"])
	}
	embed := embeds[0].(map[string]any)
	if thumb, _ := embed["thumbnail"].(map[string]any); thumb["url"] != "https://static.twitch.tv/g1-600x800.jpg" {
		t.Errorf("thumbnail = %v, want sized box art", embed["thumbnail"])
	}
	rec, ok := st.Lookup("c1")
	if !ok || rec.Handle != "5000" {
		t.Fatalf("state record = %+v, %v; want handle 5000", rec, ok)
	}

	// Title stabilized upstream: the second cycle edits the stored message
	// instead of posting again.
	twitch.MockClipsResponse(clipJSON("Great Play!!"))
	stats, err = eng.Run(context.Background(), spec, st)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if stats.Edited != 1 || stats.Posted != 0 {
		t.Fatalf("second cycle stats = %+v, want one edit, zero posts", stats)
	}
	if len(webhookSrv.Creates) != 1 {
		t.Errorf("creates after second cycle = %d, want still 1", len(webhookSrv.Creates))
	}
	if len(webhookSrv.Edits) != 1 || !strings.HasSuffix(webhookSrv.EditPaths[0], "/messages/5000") {
		t.Fatalf("edits = %v at %v, want one edit on message 5000", webhookSrv.Edits, webhookSrv.EditPaths)
	}
	if got, _ := webhookSrv.Edits[0]["content"].(string); !strings.Contains(got, "Great Play!!") {
		t.Errorf("edit content = %q, want new title", got)
	}
}

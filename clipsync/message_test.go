package clipsync

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/clip-courier/backend/twitchapi"
)

func sampleClip() twitchapi.Clip {
	return twitchapi.Clip{
		ID:              "c1",
		URL:             "https://clips.twitch.tv/c1",
		Title:           "  Great Play ",
		BroadcasterName: "Alice",
		CreatorID:       "u1",
		CreatorName:     "bob",
		VideoID:         "v1",
		GameID:          "g1",
		Language:        "en",
		ViewCount:       42,
		CreatedAt:       time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC),
		ThumbnailURL:    "https://clips-media.twitch.tv/c1-preview.jpg",
		Duration:        30.5,
	}
}

func TestComposeMessageContent(t *testing.T) {
	clip := sampleClip()
	users := map[string]twitchapi.User{"u1": {ID: "u1", Login: "bob", DisplayName: "Bob", ProfileImageURL: "https://static.twitch.tv/bob.png"}}
	videos := map[string]twitchapi.Video{"v1": {ID: "v1", Title: "Tuesday Stream"}}
	games := map[string]twitchapi.Game{"g1": {ID: "g1", Name: "Game X", BoxArtURL: "https://static.twitch.tv/g1-600x800.jpg"}}

	msg := composeMessage(clip, users, videos, games, Options{ShowCreatedDate: true})

	ts := clip.CreatedAt.Unix()
	wantContent := fmt.Sprintf("``Great Play``: https://clips.twitch.tv/c1 (Created at: <t:%d:F> - <t:%d:R>)", ts, ts)
	if msg.Content != wantContent {
		t.Errorf("Content = %q, want %q", msg.Content, wantContent)
	}
	if msg.Username != "bob" {
		t.Errorf("Username = %q, want bob", msg.Username)
	}
	if msg.AvatarURL != "https://static.twitch.tv/bob.png" {
		t.Errorf("AvatarURL = %q", msg.AvatarURL)
	}
	if msg.ThumbnailURL != "https://static.twitch.tv/g1-600x800.jpg" {
		t.Errorf("ThumbnailURL = %q, want game box art", msg.ThumbnailURL)
	}
	if msg.ImageURL != clip.ThumbnailURL {
		t.Errorf("ImageURL = %q, want clip thumbnail", msg.ImageURL)
	}

	fields := map[string]string{}
	for _, f := range msg.Fields {
		fields[f.Name] = f.Value
	}
	for name, want := range map[string]string{
		"Game":       "Game X",
		"Streamer":   "Alice",
		"Clipper":    "bob",
		"VOD":        "[v1](https://www.twitch.tv/videos/v1)",
		"Language":   "en",
		"Views":      "42",
		"Created At": fmt.Sprintf("<t:%d:F>", ts),
		"Duration":   "30.5 seconds",
		"VOD Offset": "N/A",
		"Featured":   "false",
	} {
		if fields[name] != want {
			t.Errorf("field %s = %q, want %q", name, fields[name], want)
		}
	}
}

func TestComposeMessageWithoutCreatedDate(t *testing.T) {
	msg := composeMessage(sampleClip(), nil, nil, nil, Options{ShowCreatedDate: false})
	if strings.Contains(msg.Content, "Created at") {
		t.Errorf("Content = %q, should not carry the created date", msg.Content)
	}
	if msg.Content != "``Great Play``: https://clips.twitch.tv/c1" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestComposeMessageMissingReferences(t *testing.T) {
	clip := sampleClip()
	clip.VideoID = ""
	clip.GameID = ""
	clip.Language = ""

	msg := composeMessage(clip, nil, nil, nil, Options{})

	fields := map[string]string{}
	for _, f := range msg.Fields {
		fields[f.Name] = f.Value
	}
	if fields["Game"] != "N/A" || fields["VOD"] != "N/A" || fields["Language"] != "N/A" {
		t.Errorf("unresolved references should render N/A, got game=%q vod=%q lang=%q",
			fields["Game"], fields["VOD"], fields["Language"])
	}
	if msg.ThumbnailURL != "" {
		t.Errorf("ThumbnailURL = %q, want empty without a game", msg.ThumbnailURL)
	}
	if msg.AvatarURL != "" {
		t.Errorf("AvatarURL = %q, want empty without a resolved creator", msg.AvatarURL)
	}
}

func TestComposeMessageVODOffset(t *testing.T) {
	offset := 120
	clip := sampleClip()
	clip.VODOffset = &offset

	msg := composeMessage(clip, nil, nil, nil, Options{})
	for _, f := range msg.Fields {
		if f.Name == "VOD Offset" && f.Value != "120 seconds" {
			t.Errorf("VOD Offset = %q, want 120 seconds", f.Value)
		}
	}
}

package clipsync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/onnwee/clip-courier/backend/twitchapi"
)

// Field is one structured key/value pair of a composed notification.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a fully composed notification, ready for a sink to send or edit.
// Content is the comparable text used to detect whether a previously posted
// message needs an edit.
type Message struct {
	Username  string
	AvatarURL string
	Content   string

	Title        string
	URL          string
	Fields       []Field
	ThumbnailURL string
	ImageURL     string
}

// composeMessage joins a clip with its resolved cross-references into the
// outbound notification.
func composeMessage(clip twitchapi.Clip, users map[string]twitchapi.User, videos map[string]twitchapi.Video, games map[string]twitchapi.Game, opts Options) Message {
	title := strings.TrimSpace(clip.Title)
	content := fmt.Sprintf("``%s``: %s", title, clip.URL)
	if opts.ShowCreatedDate {
		ts := clip.CreatedAt.Unix()
		content += fmt.Sprintf(" (Created at: <t:%d:F> - <t:%d:R>)", ts, ts)
	}

	msg := Message{
		Username: clip.CreatorName,
		Content:  content,
		Title:    title,
		URL:      clip.URL,
		ImageURL: clip.ThumbnailURL,
	}
	if u, ok := users[clip.CreatorID]; ok {
		msg.AvatarURL = u.ProfileImageURL
	}

	gameName, vodLink := "N/A", "N/A"
	if g, ok := games[clip.GameID]; ok {
		gameName = g.Name
		msg.ThumbnailURL = g.BoxArtURL
	}
	if clip.VideoID != "" {
		vodLink = fmt.Sprintf("[%s](https://www.twitch.tv/videos/%s)", clip.VideoID, clip.VideoID)
	}
	msg.Fields = []Field{
		{Name: "Game", Value: gameName, Inline: true},
		{Name: "Streamer", Value: orNA(clip.BroadcasterName), Inline: true},
		{Name: "Clipper", Value: orNA(clip.CreatorName), Inline: true},
		{Name: "VOD", Value: vodLink, Inline: true},
		{Name: "Language", Value: orNA(clip.Language), Inline: true},
		{Name: "Views", Value: strconv.Itoa(clip.ViewCount), Inline: true},
		{Name: "Created At", Value: fmt.Sprintf("<t:%d:F>", clip.CreatedAt.Unix()), Inline: true},
		{Name: "Duration", Value: strconv.FormatFloat(clip.Duration, 'f', -1, 64) + " seconds", Inline: true},
		{Name: "VOD Offset", Value: vodOffset(clip.VODOffset), Inline: true},
		{Name: "Featured", Value: strconv.FormatBool(clip.IsFeatured), Inline: true},
	}
	return msg
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func vodOffset(offset *int) string {
	if offset == nil || *offset == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d seconds", *offset)
}

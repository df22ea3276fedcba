// Package notify delivers composed clip notifications to a Discord channel
// through an incoming webhook, supporting later edits of sent messages.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/onnwee/clip-courier/backend/clipsync"
)

// WebhookSink sends and edits messages through one Discord webhook. It
// implements clipsync.Sink; the returned handle is the message snowflake id.
type WebhookSink struct {
	client webhook.Client
}

// NewWebhookSink parses a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token> into its id/token pair and
// builds a client. httpClient may be nil for the default transport.
func NewWebhookSink(webhookURL string, httpClient *http.Client) (*WebhookSink, error) {
	parsed, err := url.Parse(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 {
		return nil, fmt.Errorf("webhook url %q missing id/token path segments", webhookURL)
	}
	id, err := snowflake.Parse(parts[len(parts)-2])
	if err != nil {
		return nil, fmt.Errorf("parse webhook id: %w", err)
	}
	token := parts[len(parts)-1]

	opts := []webhook.ConfigOpt{}
	if httpClient != nil {
		opts = append(opts, webhook.WithRestClientConfigOpts(rest.WithHTTPClient(httpClient)))
	}
	return &WebhookSink{client: webhook.New(id, token, opts...)}, nil
}

// Send posts a new message and returns its handle.
func (s *WebhookSink) Send(ctx context.Context, msg clipsync.Message) (string, error) {
	create := discord.NewWebhookMessageCreateBuilder().
		SetContent(msg.Content).
		SetUsername(msg.Username).
		SetAvatarURL(msg.AvatarURL).
		SetEmbeds(buildEmbed(msg)).
		Build()
	m, err := s.client.CreateMessage(create, rest.WithCtx(ctx))
	if err != nil {
		return "", err
	}
	return m.ID.String(), nil
}

// Edit replaces the content of a previously sent message. The embed is left
// untouched; only the evolving title line changes.
func (s *WebhookSink) Edit(ctx context.Context, handle, content string) error {
	id, err := snowflake.Parse(handle)
	if err != nil {
		return fmt.Errorf("parse message handle %q: %w", handle, err)
	}
	update := discord.NewWebhookMessageUpdateBuilder().SetContent(content).Build()
	_, err = s.client.UpdateMessage(id, update, rest.WithCtx(ctx))
	return err
}

func buildEmbed(msg clipsync.Message) discord.Embed {
	eb := discord.NewEmbedBuilder().
		SetTitle(msg.Title).
		SetURL(msg.URL)
	for _, f := range msg.Fields {
		eb.AddField(f.Name, f.Value, f.Inline)
	}
	if msg.ThumbnailURL != "" {
		eb.SetThumbnail(msg.ThumbnailURL)
	}
	if msg.ImageURL != "" {
		eb.SetImage(msg.ImageURL)
	}
	return eb.Build()
}

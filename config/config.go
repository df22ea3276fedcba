// Package config loads environment variables plus the broadcasters file and
// provides a typed Config used across the service. It applies sensible defaults
// so the binary can run locally with minimal setup. For required credentials,
// use ValidateSyncReady.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/onnwee/clip-courier/backend/clipsync"
)

// DefaultLookback is applied when a broadcaster entry omits its lookback window.
const DefaultLookback = "1d"

// Broadcaster describes one tracked channel and its notification target.
type Broadcaster struct {
	Login            string `yaml:"login"`
	WebhookURL       string `yaml:"webhook_url"`
	Lookback         string `yaml:"lookback"`
	SuppressUntitled bool   `yaml:"suppress_untitled"`
	// ShowCreatedDate defaults to true when absent, so it is a pointer until
	// normalization.
	ShowCreatedDate *bool `yaml:"show_created_date"`
}

// Options returns the per-cycle sync options for this broadcaster.
func (b Broadcaster) Options() clipsync.Options {
	show := true
	if b.ShowCreatedDate != nil {
		show = *b.ShowCreatedDate
	}
	return clipsync.Options{SuppressUntitled: b.SuppressUntitled, ShowCreatedDate: show}
}

type Config struct {
	// Twitch app credentials
	TwitchClientID     string
	TwitchClientSecret string

	// Sync
	Broadcasters []Broadcaster
	SyncInterval time.Duration
	RunMode      string // "service" | "oneshot"

	// HTTP
	HTTPAddr string
}

type broadcastersFile struct {
	Broadcasters []Broadcaster `yaml:"broadcasters"`
}

// Load reads environment variables and the broadcasters file, applying
// defaults. A missing broadcasters file is not an error when the legacy
// single-broadcaster env vars (BROADCASTER_LOGIN, DISCORD_WEBHOOK_URL) are
// set; use ValidateSyncReady when at least one broadcaster is required.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")

	cfg.SyncInterval = 5 * time.Minute
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SYNC_INTERVAL %q", v)
		}
		cfg.SyncInterval = d
	}

	cfg.RunMode = strings.ToLower(os.Getenv("RUN_MODE"))
	switch cfg.RunMode {
	case "":
		cfg.RunMode = "service"
	case "service", "oneshot":
	default:
		return nil, fmt.Errorf("invalid RUN_MODE %q (want service or oneshot)", cfg.RunMode)
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	path := os.Getenv("BROADCASTERS_FILE")
	if path == "" {
		path = "broadcasters.yaml"
	}
	if raw, err := os.ReadFile(path); err == nil {
		var bf broadcastersFile
		if err := yaml.Unmarshal(raw, &bf); err != nil {
			return nil, fmt.Errorf("parse broadcasters file %s: %w", path, err)
		}
		cfg.Broadcasters = bf.Broadcasters
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read broadcasters file %s: %w", path, err)
	}

	// Legacy single-broadcaster env fallback (pre-file deployments).
	if len(cfg.Broadcasters) == 0 && os.Getenv("BROADCASTER_LOGIN") != "" {
		cfg.Broadcasters = []Broadcaster{envBroadcaster()}
	}

	for i := range cfg.Broadcasters {
		b := &cfg.Broadcasters[i]
		if b.Lookback == "" {
			b.Lookback = DefaultLookback
		}
		if _, err := clipsync.ParseLookback(b.Lookback); err != nil {
			return nil, fmt.Errorf("broadcaster %s: %w", b.Login, err)
		}
	}

	return cfg, nil
}

func envBroadcaster() Broadcaster {
	b := Broadcaster{
		Login:      os.Getenv("BROADCASTER_LOGIN"),
		WebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		Lookback:   os.Getenv("POLLING_INTERVAL"),
	}
	if v := os.Getenv("SUPPRESS_UNTITLED"); strings.EqualFold(v, "true") {
		b.SuppressUntitled = true
	}
	if v := os.Getenv("SHOW_CREATED_DATE"); v != "" {
		show := strings.EqualFold(v, "true")
		b.ShowCreatedDate = &show
	}
	return b
}

// ValidateSyncReady checks required fields for running clip synchronization.
func (c *Config) ValidateSyncReady() error {
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	if len(c.Broadcasters) == 0 {
		return fmt.Errorf("no broadcasters configured (broadcasters file or BROADCASTER_LOGIN env)")
	}
	for _, b := range c.Broadcasters {
		if b.Login == "" || b.WebhookURL == "" {
			return fmt.Errorf("broadcaster entry missing login or webhook_url")
		}
	}
	return nil
}

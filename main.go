// Command backend is the entrypoint for the clip-courier service.
// It:
//   - Loads configuration and initializes structured logging.
//   - Starts one clip synchronization job per tracked broadcaster, either as
//     a continuous 5-minute polling service or as a single one-shot cycle.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, and
//     /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/clip-courier/backend/clipsync"
	"github.com/onnwee/clip-courier/backend/config"
	"github.com/onnwee/clip-courier/backend/notify"
	"github.com/onnwee/clip-courier/backend/server"
	"github.com/onnwee/clip-courier/backend/telemetry"
	"github.com/onnwee/clip-courier/backend/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	initLogging()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateSyncReady(); err != nil {
		slog.Error("config incomplete", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("clip-courier", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// One token source shared by every broadcaster job; Helix calls renew it
	// proactively with a 60s safety margin.
	httpClient := &http.Client{Timeout: 15 * time.Second}
	tokenSource := &twitchapi.TokenSource{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		HTTPClient:   httpClient,
	}
	helix := &twitchapi.HelixClient{
		AppTokenSource: tokenSource,
		ClientID:       cfg.TwitchClientID,
		HTTPClient:     httpClient,
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := clipsync.NewRegistry()
	telemetry.SetTrackedBroadcasters(len(cfg.Broadcasters))
	slog.Info("starting clip sync", slog.Int("broadcaster_count", len(cfg.Broadcasters)), slog.String("mode", cfg.RunMode))

	var wg sync.WaitGroup
	oneShotFailed := false
	var oneShotMu sync.Mutex
	for _, b := range cfg.Broadcasters {
		lookback, err := clipsync.ParseLookback(b.Lookback)
		if err != nil {
			// Load already validated; a failure here is a programming error.
			slog.Error("invalid lookback", slog.String("broadcaster", b.Login), slog.Any("err", err))
			os.Exit(1)
		}
		sink, err := notify.NewWebhookSink(b.WebhookURL, httpClient)
		if err != nil {
			slog.Error("invalid webhook url", slog.String("broadcaster", b.Login), slog.Any("err", err))
			os.Exit(1)
		}
		svc := &clipsync.Service{
			Runner:   &clipsync.Engine{API: helix, Sink: sink},
			Interval: cfg.SyncInterval,
			Registry: registry,
		}
		spec := clipsync.BroadcasterSpec{Login: b.Login, Lookback: lookback, Options: b.Options()}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cfg.RunMode == "oneshot" {
				if err := svc.RunOnce(ctx, spec); err != nil {
					oneShotMu.Lock()
					oneShotFailed = true
					oneShotMu.Unlock()
				}
				return
			}
			svc.Run(ctx, spec)
		}()
	}

	if cfg.RunMode == "oneshot" {
		wg.Wait()
		if oneShotFailed {
			os.Exit(1)
		}
		return
	}

	// HTTP server (health/status/metrics)
	go func() {
		if err := server.Start(ctx, registry, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
	wg.Wait()
}

// initLogging configures the default slog logger from LOG_LEVEL and
// LOG_FORMAT (text | json).
func initLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()))
}

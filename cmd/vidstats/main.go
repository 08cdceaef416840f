package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/vidstats/api"
	"github.com/use-agent/vidstats/config"
	"github.com/use-agent/vidstats/engine"
	"github.com/use-agent/vidstats/metrics"
	"github.com/use-agent/vidstats/stats"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("vidstats starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"engine", cfg.Fetch.Engine,
	)

	// ── 3. Initialise fetch engine ──────────────────────────────────
	eng, closeEngine, err := engine.New(cfg.Fetch.Engine, cfg.Fetch.Proxy, engine.BrowserOptions{
		Headless:   cfg.Browser.Headless,
		NoSandbox:  cfg.Browser.NoSandbox,
		BrowserBin: cfg.Browser.BrowserBin,
		MaxPages:   cfg.Browser.MaxPages,
	})
	if err != nil {
		slog.Error("failed to initialise fetch engine", "error", err)
		os.Exit(1)
	}
	defer closeEngine()

	// ── 4. Initialise metrics and the stats pipeline ────────────────
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	x := stats.New(eng,
		stats.WithTimeout(cfg.Fetch.DefaultTimeout),
		stats.WithMetrics(m),
	)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(x, cfg, m, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight lookups are bounded by the max fetch timeout.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.MaxTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// closeEngine runs via defer; for the browser engine it kills Chrome.
	slog.Info("vidstats stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

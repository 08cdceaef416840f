package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fetch engine names accepted by VIDSTATS_FETCH_ENGINE.
const (
	EngineHTTP    = "http"
	EngineBrowser = "browser"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Fetch   FetchConfig
	Browser BrowserConfig
	CORS    CORSConfig
	Metrics MetricsConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls how video pages are retrieved.
type FetchConfig struct {
	// Engine selects the fetch engine: "http" or "browser".
	Engine string // default: "http"

	// DefaultTimeout is used when a request does not carry one.
	DefaultTimeout time.Duration // default: 15s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 60s

	// Proxy is an optional outbound proxy URL for either engine.
	Proxy string
}

// BrowserConfig controls the Rod browser instance used by the browser engine.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// CORSConfig controls the cross-origin headers on the stats endpoint.
type CORSConfig struct {
	AllowedOrigins []string // default: ["*"]
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   // default: true
	Path    string // default: "/metrics"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// Values from .env files are applied first and never override variables
// already present in the environment.
func Load() *Config {
	if err := loadEnvFiles(); err != nil {
		slog.Warn("env file not loaded", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("VIDSTATS_HOST", "0.0.0.0"),
			Port: envIntOr("VIDSTATS_PORT", 8080),
			Mode: envOr("VIDSTATS_MODE", "release"),
		},
		Fetch: FetchConfig{
			Engine:         engineOr("VIDSTATS_FETCH_ENGINE", EngineHTTP),
			DefaultTimeout: envDurationOr("VIDSTATS_DEFAULT_TIMEOUT", 15*time.Second),
			MaxTimeout:     envDurationOr("VIDSTATS_MAX_TIMEOUT", 60*time.Second),
			Proxy:          os.Getenv("VIDSTATS_PROXY"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("VIDSTATS_HEADLESS", true),
			MaxPages:   envIntOr("VIDSTATS_MAX_PAGES", 4),
			NoSandbox:  envBoolOr("VIDSTATS_NO_SANDBOX", false),
			BrowserBin: os.Getenv("VIDSTATS_BROWSER_BIN"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("VIDSTATS_CORS_ORIGINS", []string{"*"}),
		},
		Metrics: MetricsConfig{
			Enabled: envBoolOr("VIDSTATS_METRICS_ENABLED", true),
			Path:    envOr("VIDSTATS_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level:  envOr("VIDSTATS_LOG_LEVEL", "info"),
			Format: envOr("VIDSTATS_LOG_FORMAT", "json"),
		},
	}
}

// loadEnvFiles loads .env files in priority order:
// 1. VIDSTATS_ENV_FILE (if set, loads only this file)
// 2. .env.local
// 3. .env
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("VIDSTATS_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env.local: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// --- helper functions ---

func engineOr(key, fallback string) string {
	switch v := strings.ToLower(strings.TrimSpace(os.Getenv(key))); v {
	case EngineHTTP, EngineBrowser:
		return v
	case "":
		return fallback
	default:
		slog.Warn("unknown fetch engine, using default", "value", v, "default", fallback)
		return fallback
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

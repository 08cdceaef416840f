package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VIDSTATS_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, EngineHTTP, cfg.Fetch.Engine)
	assert.Equal(t, 15*time.Second, cfg.Fetch.DefaultTimeout)
	assert.Equal(t, 60*time.Second, cfg.Fetch.MaxTimeout)
	assert.Empty(t, cfg.Fetch.Proxy)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 4, cfg.Browser.MaxPages)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VIDSTATS_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("VIDSTATS_PORT", "9090")
	t.Setenv("VIDSTATS_FETCH_ENGINE", " Browser ")
	t.Setenv("VIDSTATS_DEFAULT_TIMEOUT", "5s")
	t.Setenv("VIDSTATS_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("VIDSTATS_METRICS_ENABLED", "false")
	t.Setenv("VIDSTATS_HEADLESS", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, EngineBrowser, cfg.Fetch.Engine)
	assert.Equal(t, 5*time.Second, cfg.Fetch.DefaultTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Browser.Headless, "invalid bool falls back to default")
}

func TestLoad_UnknownEngineFallsBack(t *testing.T) {
	t.Setenv("VIDSTATS_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("VIDSTATS_FETCH_ENGINE", "carrier-pigeon")

	assert.Equal(t, EngineHTTP, Load().Fetch.Engine)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VIDSTATS_LOG_LEVEL=debug\nVIDSTATS_PORT=7000\n"), 0o600))
	t.Setenv("VIDSTATS_ENV_FILE", path)
	// Already-set variables win over the file.
	t.Setenv("VIDSTATS_PORT", "7100")
	t.Cleanup(func() { os.Unsetenv("VIDSTATS_LOG_LEVEL") })

	cfg := Load()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7100, cfg.Server.Port)
}

package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout())
	assert.Equal(t, ":memory:", cfg.Cache.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "list", cfg.Display.DefaultView)
}

func TestLoadConfig_FileAndNormalization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://tasks.example.com/
  timeout_sec: 0
display:
  default_view: calendar
cache:
  path: /tmp/planner.db
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tasks.example.com", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, "list", cfg.Display.DefaultView)
	assert.Equal(t, "/tmp/planner.db", cfg.Cache.Path)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PLANNER_API_BASE_URL", "http://staging:9000")
	t.Setenv("PLANNER_DISPLAY_DEFAULT_VIEW", "board")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://staging:9000", cfg.API.BaseURL)
	assert.Equal(t, "board", cfg.Display.DefaultView)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := defaultAppConfig()
	want.API.BaseURL = "https://tasks.example.com"
	want.Display.DefaultView = "schedule"

	require.NoError(t, SaveConfig(path, want))
	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want.API, got.API)
	assert.Equal(t, "schedule", got.Display.DefaultView)
}

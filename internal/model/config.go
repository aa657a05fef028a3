package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds connection settings for the task-management service.
type APIConfig struct {
	// BaseURL is the root URL of the service (without a trailing slash).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns TimeoutSec as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheConfig controls the session-scoped local cache.
type CacheConfig struct {
	// Path is the SQLite database file. ":memory:" keeps the cache in-process.
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// DefaultView is the workspace tab opened first: list, board or schedule.
	DefaultView string `mapstructure:"default_view" yaml:"default_view"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// EnvPrefix is prepended to environment variable overrides, e.g.
// PLANNER_API_BASE_URL.
const EnvPrefix = "PLANNER"

// ConfigDir returns ~/.config/planner, or "." when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "planner")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/planner/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Cache: CacheConfig{Path: ":memory:"},
		Log: LogConfig{
			Path:  filepath.Join(ConfigDir(), "planner.log"),
			Level: "info",
		},
		Display: DisplayConfig{
			Theme:       "default",
			DefaultView: "list",
		},
	}
}

// NewViper returns a Viper instance carrying the application defaults and
// environment bindings. Callers may bind command-line flags into it before
// passing it to LoadConfigFrom.
func NewViper() *viper.Viper {
	d := defaultAppConfig()
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("display.default_view", d.Display.DefaultView)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) apply.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(), path)
}

// LoadConfigFrom reads path into v and unmarshals the result.
func LoadConfigFrom(v *viper.Viper, path string) (*AppConfig, error) {
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &pathErr), errors.As(err, &notFound):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}
	switch cfg.Display.DefaultView {
	case "list", "board", "schedule":
	default:
		cfg.Display.DefaultView = "list"
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("cache", cfg.Cache)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

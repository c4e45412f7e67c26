// Package config loads the player configuration from TOML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	User string `koanf:"user" default:"local" validate:"required"` // local profile that owns history and favorites

	Playback   PlaybackConfig   `koanf:"playback"`
	Visualizer VisualizerConfig `koanf:"visualizer"`
	Storage    StorageConfig    `koanf:"storage"`
	S3         S3Config         `koanf:"s3"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	UI         UIConfig         `koanf:"ui"`
}

// PlaybackConfig holds the playback controller settings.
type PlaybackConfig struct {
	Volume           float64       `koanf:"volume" default:"0.7" validate:"gte=0,lte=1"`       // used until a volume has been saved
	ProgressInterval time.Duration `koanf:"progress_interval" default:"10s" validate:"gte=1s"` // how often listening progress is recorded
	RestartThreshold time.Duration `koanf:"restart_threshold" default:"3s" validate:"gte=0"`   // "previous" restarts the track past this position
	PersistTimeout   time.Duration `koanf:"persist_timeout" default:"5s" validate:"gt=0"`      // per call to the store
}

// VisualizerConfig holds the waveform renderer settings.
type VisualizerConfig struct {
	Enabled    bool    `koanf:"enabled" default:"true"`
	Bars       int     `koanf:"bars" default:"48" validate:"gte=8,lte=256"`
	FPS        int     `koanf:"fps" default:"60" validate:"gte=1,lte=240"`
	FFTSize    int     `koanf:"fft_size" default:"256" validate:"oneof=32 64 128 256 512 1024 2048 4096 8192 16384 32768"`
	Smoothing  float64 `koanf:"smoothing" default:"0.8" validate:"gte=0,lt=1"`
	Span       float64 `koanf:"span" default:"0.6" validate:"gt=0,lte=1"` // fraction of the spectrum shown
	MinHeight  float64 `koanf:"min_height" default:"0.05" validate:"gte=0,lte=1"`
	IdleHeight float64 `koanf:"idle_height" default:"0.1" validate:"gte=0,lte=1"`
	Theme      string  `koanf:"theme" default:"waves" validate:"oneof=waves ember"`
}

// StorageConfig locates the sqlite database.
type StorageConfig struct {
	Database string `koanf:"database"` // empty means the XDG data directory
}

// S3Config enables s3:// media locators. Credentials come from the usual
// AWS environment variables and shared config files.
type S3Config struct {
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint" validate:"omitempty,url"` // e.g. a MinIO server
	PathStyle bool   `koanf:"path_style"`
}

// LogConfig controls where logs go. The terminal UI owns the screen, so
// logs default to a file.
type LogConfig struct {
	Level  string `koanf:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `koanf:"output" default:"file" validate:"oneof=stdout stderr file"`
	File   string `koanf:"file"` // empty means the XDG state directory
}

// UIConfig holds the now-playing screen settings.
type UIConfig struct {
	Icons         string `koanf:"icons" default:"unicode" validate:"oneof=nerd unicode none"`
	Notifications bool   `koanf:"notifications" default:"true"` // desktop notification on track change
}

// MetricsConfig enables the prometheus endpoint.
type MetricsConfig struct {
	Listen string `koanf:"listen" validate:"omitempty,hostname_port"` // e.g. "127.0.0.1:9464"; empty disables
}

// Load reads the configuration. With an empty path the user config
// (~/.config/soundwave/config.toml) and ./config.toml are read when present,
// the latter winning; otherwise only path is read and must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	} else {
		for _, p := range getConfigPaths() {
			if _, err := os.Stat(p); err == nil {
				if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
					return nil, errors.Wrapf(err, "load %s", p)
				}
			}
		}
	}

	cfg := &Config{}
	// Defaults first so explicit zero values in the file survive.
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "set defaults")
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	cfg.overrideFromEnv()

	cfg.Storage.Database = expandPath(cfg.Storage.Database)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.S3.Endpoint = strings.TrimSuffix(cfg.S3.Endpoint, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideFromEnv lets deployment-specific values come from the
// environment (or a .env file loaded beforehand).
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SOUNDWAVE_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("SOUNDWAVE_DATABASE"); v != "" {
		c.Storage.Database = v
	}
	if v := os.Getenv("SOUNDWAVE_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("SOUNDWAVE_S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("SOUNDWAVE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// HasS3Config reports whether s3:// locators should be enabled.
func (c *Config) HasS3Config() bool {
	return c.S3.Region != "" || c.S3.Endpoint != ""
}

// HasMetrics reports whether the metrics endpoint is enabled.
func (c *Config) HasMetrics() bool {
	return c.Metrics.Listen != ""
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/soundwave/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "soundwave", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

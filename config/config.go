package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
)

// AnimationConfig holds the durations the animation timeline waits for.
// They must match the renderer's CSS transitions.
type AnimationConfig struct {
	FlipMS         int `json:"flip_ms"`
	ShakeDelayMS   int `json:"shake_delay_ms"`
	MismatchMS     int `json:"mismatch_ms"`
	OpenMismatchMS int `json:"open_mismatch_ms"`
	SwitchSettleMS int `json:"switch_settle_ms"`
	// FrameTimeoutMS bounds how long a frame step waits for the renderer's
	// acknowledgement before it proceeds anyway.
	FrameTimeoutMS int `json:"frame_timeout_ms"`
}

// CelebrationConfig holds parameters for the confetti effect played on a win.
type CelebrationConfig struct {
	DurationMS     int `json:"duration_ms"`
	GraceMS        int `json:"grace_ms"`
	FrameMS        int `json:"frame_ms"`
	ViewportWidth  int `json:"viewport_width"`
	ViewportHeight int `json:"viewport_height"`
}

// Config holds all configurable game parameters.
type Config struct {
	PairCount      int    `json:"pair_count"`
	Variant        string `json:"variant"`
	ClosedTimerSec int    `json:"closed_timer_sec"`
	OpenTimerSec   int    `json:"open_timer_sec"`

	Animation   AnimationConfig   `json:"animation"`
	Celebration CelebrationConfig `json:"celebration"`

	HTTPPort        int    `json:"http_port"`
	DatabaseURL     string `json:"database_url"`
	LogLevel        string `json:"log_level"`
	ResumeWindowSec int    `json:"resume_window_sec"`
}

// Defaults returns a Config with the reference game's values.
func Defaults() *Config {
	return &Config{
		PairCount:      8,
		Variant:        "image",
		ClosedTimerSec: 60,
		OpenTimerSec:   120,
		Animation: AnimationConfig{
			FlipMS:         250,
			ShakeDelayMS:   400,
			MismatchMS:     1200,
			OpenMismatchMS: 500,
			SwitchSettleMS: 150,
			FrameTimeoutMS: 1000,
		},
		Celebration: CelebrationConfig{
			DurationMS:     3000,
			GraceMS:        5000,
			FrameMS:        16,
			ViewportWidth:  1280,
			ViewportHeight: 800,
		},
		HTTPPort:        8080,
		LogLevel:        "info",
		ResumeWindowSec: 120,
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	overrideInt(&cfg.PairCount, "PAIR_COUNT")
	overrideString(&cfg.Variant, "VARIANT")
	overrideInt(&cfg.ClosedTimerSec, "CLOSED_TIMER_SEC")
	overrideInt(&cfg.OpenTimerSec, "OPEN_TIMER_SEC")
	overrideInt(&cfg.Animation.FlipMS, "FLIP_MS")
	overrideInt(&cfg.Animation.ShakeDelayMS, "SHAKE_DELAY_MS")
	overrideInt(&cfg.Animation.MismatchMS, "MISMATCH_MS")
	overrideInt(&cfg.Animation.OpenMismatchMS, "OPEN_MISMATCH_MS")
	overrideInt(&cfg.Animation.SwitchSettleMS, "SWITCH_SETTLE_MS")
	overrideInt(&cfg.Animation.FrameTimeoutMS, "FRAME_TIMEOUT_MS")
	overrideInt(&cfg.Celebration.DurationMS, "CELEBRATION_MS")
	overrideInt(&cfg.Celebration.GraceMS, "CELEBRATION_GRACE_MS")
	overrideInt(&cfg.HTTPPort, "HTTP_PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideInt(&cfg.ResumeWindowSec, "RESUME_WINDOW_SEC")

	if cfg.PairCount < 1 {
		slog.Warn("pair_count must be positive; using default", "tag", "config", "pair_count", cfg.PairCount)
		cfg.PairCount = Defaults().PairCount
	}

	return cfg
}

// SlogLevel maps LogLevel to a slog level; unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid value for "+envKey, "tag", "config", "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

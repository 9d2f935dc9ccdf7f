// Package config loads the board settings from a TOML file.
//
// Values are resolved in this order: built-in defaults, the TOML file (when
// present), then AETHER_* environment variables. The result is validated
// before it is handed to the rest of the program.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"AetherBoard/internal/board"
)

// DefaultPath is used when AETHER_CONFIG is unset.
const DefaultPath = "aether.toml"

// Config is the complete program configuration.
type Config struct {
	Board  BoardConfig  `toml:"board"`
	Mirror MirrorConfig `toml:"mirror"`
	Export ExportConfig `toml:"export"`
	Log    LogConfig    `toml:"log"`
}

// BoardConfig holds the drawing surface settings.
type BoardConfig struct {
	Background   string `toml:"background"`
	Color        string `toml:"color"`
	Width        int    `toml:"width"`
	HistoryDepth int    `toml:"history_depth"`
	StrokeReward int    `toml:"stroke_reward"`
	ClearReward  int    `toml:"clear_reward"`
	// LeavePolicy is "commit" or "discard".
	LeavePolicy string `toml:"leave_policy"`
	// Fallback size is used when the host reports no measured size yet.
	FallbackWidth  int `toml:"fallback_width"`
	FallbackHeight int `toml:"fallback_height"`
}

// MirrorConfig controls the read-only live mirror.
type MirrorConfig struct {
	Enabled   bool `toml:"enabled"`
	Port      int  `toml:"port"`
	Advertise bool `toml:"advertise"`
	MaxWidth  int  `toml:"max_width"`
}

type ExportConfig struct {
	Dir string `toml:"dir"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Board: BoardConfig{
			Background:     board.DefaultBackground,
			Color:          board.DefaultColor,
			Width:          board.DefaultWidth,
			HistoryDepth:   board.DefaultDepth,
			StrokeReward:   board.StrokeReward,
			ClearReward:    board.StrokeReward,
			LeavePolicy:    string(board.LeaveCommit),
			FallbackWidth:  800,
			FallbackHeight: 600,
		},
		Mirror: MirrorConfig{
			Enabled:   true,
			Port:      8888,
			Advertise: true,
			MaxWidth:  640,
		},
		Export: ExportConfig{Dir: "."},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// PathFromEnv returns AETHER_CONFIG or DefaultPath.
func PathFromEnv() string {
	if p := os.Getenv("AETHER_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// ApplyEnvOverrides applies AETHER_* variables. Unparsable numbers are
// left at their previous value.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("AETHER_MIRROR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Mirror.Port = port
		}
	}
	if v := os.Getenv("AETHER_MIRROR"); v != "" {
		c.Mirror.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("AETHER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("AETHER_EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("AETHER_LEAVE_POLICY"); v != "" {
		c.Board.LeavePolicy = strings.ToLower(v)
	}
}

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid field.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := board.ParseColor(c.Board.Background); err != nil {
		add("board.background", "%v", err)
	}
	if _, err := board.ParseColor(c.Board.Color); err != nil {
		add("board.color", "%v", err)
	}
	if c.Board.Width < board.MinWidth || c.Board.Width > board.MaxWidth {
		add("board.width", "must be between %d and %d, got %d", board.MinWidth, board.MaxWidth, c.Board.Width)
	}
	if c.Board.HistoryDepth < 2 {
		add("board.history_depth", "must be at least 2, got %d", c.Board.HistoryDepth)
	}
	if c.Board.StrokeReward < 0 {
		add("board.stroke_reward", "must not be negative")
	}
	if c.Board.ClearReward < 0 {
		add("board.clear_reward", "must not be negative")
	}
	if !board.LeavePolicy(c.Board.LeavePolicy).Valid() {
		add("board.leave_policy", "invalid policy '%s', must be one of: commit, discard", c.Board.LeavePolicy)
	}
	if c.Board.FallbackWidth <= 0 || c.Board.FallbackHeight <= 0 {
		add("board.fallback_width", "fallback size must be positive")
	}
	if c.Mirror.Port < 1 || c.Mirror.Port > 65535 {
		add("mirror.port", "must be between 1 and 65535, got %d", c.Mirror.Port)
	}
	if c.Mirror.MaxWidth < 0 {
		add("mirror.max_width", "must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		add("log.level", "%v", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid level '%s'", c.Log.Level)
	}
	return lvl, nil
}

// BoardOptions converts the board section into controller options. The
// callbacks are left for the caller to wire.
func (c *Config) BoardOptions() board.Options {
	opts := board.DefaultOptions()
	if bg, err := board.ParseColor(c.Board.Background); err == nil {
		opts.Background = bg
	}
	opts.HistoryDepth = c.Board.HistoryDepth
	opts.StrokeReward = rewardOption(c.Board.StrokeReward)
	opts.ClearReward = rewardOption(c.Board.ClearReward)
	opts.LeavePolicy = board.LeavePolicy(c.Board.LeavePolicy)
	opts.Tool = board.Tool{Color: c.Board.Color, Width: c.Board.Width}
	return opts
}

// rewardOption maps a configured reward of 0, meaning off, to the controller
// value that disables it.
func rewardOption(amount int) int {
	if amount == 0 {
		return board.NoReward
	}
	return amount
}

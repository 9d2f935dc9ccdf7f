package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AetherBoard/internal/board"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aether.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 11, cfg.Board.HistoryDepth)
	assert.Equal(t, "#00f3ff", cfg.Board.Color)
	assert.Equal(t, 2, cfg.Board.StrokeReward)
	assert.Equal(t, "commit", cfg.Board.LeavePolicy)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := writeFile(t, `
[board]
color = "#ff0055"
width = 7
leave_policy = "discard"

[mirror]
port = 9999
enabled = false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "#ff0055", cfg.Board.Color)
	assert.Equal(t, 7, cfg.Board.Width)
	assert.Equal(t, "discard", cfg.Board.LeavePolicy)
	assert.Equal(t, 9999, cfg.Mirror.Port)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Equal(t, "#000000", cfg.Board.Background)
	assert.Equal(t, 640, cfg.Mirror.MaxWidth)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	_, err := Load(writeFile(t, "[board\ncolor ="))
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Board.Color = "blue"
	cfg.Board.Width = 40
	cfg.Board.LeavePolicy = "rollback"
	cfg.Mirror.Port = 0
	cfg.Log.Level = "chatty"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{
		"board.color", "board.width", "board.leave_policy", "mirror.port", "log.level",
	}, fields)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AETHER_MIRROR_PORT", "7000")
	t.Setenv("AETHER_LOG_LEVEL", "debug")
	t.Setenv("AETHER_EXPORT_DIR", "/tmp/out")
	t.Setenv("AETHER_LEAVE_POLICY", "DISCARD")
	t.Setenv("AETHER_MIRROR", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Mirror.Port)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Equal(t, "/tmp/out", cfg.Export.Dir)
	assert.Equal(t, "discard", cfg.Board.LeavePolicy)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestEnvBadPortIgnored(t *testing.T) {
	t.Setenv("AETHER_MIRROR_PORT", "eighty")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8888, cfg.Mirror.Port)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("AETHER_CONFIG", "")
	assert.Equal(t, DefaultPath, PathFromEnv())
	t.Setenv("AETHER_CONFIG", "/etc/aether.toml")
	assert.Equal(t, "/etc/aether.toml", PathFromEnv())
}

func TestBoardOptions(t *testing.T) {
	cfg := Default()
	cfg.Board.Background = "#101010"
	cfg.Board.ClearReward = 0
	cfg.Board.LeavePolicy = "discard"

	opts := cfg.BoardOptions()
	assert.Equal(t, board.LeaveDiscard, opts.LeavePolicy)
	assert.Equal(t, board.NoReward, opts.ClearReward)
	assert.Equal(t, 2, opts.StrokeReward)
	assert.Equal(t, board.Tool{Color: "#00f3ff", Width: 2}, opts.Tool)

	bg, err := board.ParseColor("#101010")
	require.NoError(t, err)
	assert.Equal(t, bg, opts.Background)
}

func TestZeroRewardInConfigDisablesHook(t *testing.T) {
	cfg := Default()
	cfg.Board.ClearReward = 0

	var calls []int
	opts := cfg.BoardOptions()
	opts.OnReward = func(n int) { calls = append(calls, n) }
	c := board.NewController(opts)
	require.NoError(t, c.Initialize(10, 10))
	defer c.Close()

	c.Clear()
	assert.Empty(t, calls)
	assert.Equal(t, 2, c.HistoryLen())
}

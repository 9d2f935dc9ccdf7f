package config

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeFile(t, "[board]\nleave_policy = \"commit\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(c *Config) { got <- c })
	}()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[board]\nleave_policy = \"discard\"\nwidth = 7\n"), 0o600))

	select {
	case c := <-got:
		assert.Equal(t, "discard", c.Board.LeavePolicy)
		assert.Equal(t, 7, c.Board.Width)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchKeepsPreviousOnInvalidFile(t *testing.T) {
	path := writeFile(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	go func() { _ = Watch(ctx, path, 20*time.Millisecond, func(c *Config) { got <- c }) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[board\nbroken"), 0o600))

	select {
	case <-got:
		t.Fatal("invalid file must not be applied")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), "/nonexistent/dir/aether.toml", time.Millisecond, func(*Config) {})
	assert.Error(t, err)
}

func TestSetLogger(t *testing.T) {
	assert.False(t, logger().Enabled(context.Background(), slog.LevelError))

	l := slog.New(slog.NewTextHandler(os.Stderr, nil))
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })
	assert.Same(t, l, logger())

	SetLogger(nil)
	assert.False(t, logger().Enabled(context.Background(), slog.LevelError))
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"AetherBoard/internal/board"
	"AetherBoard/internal/config"
	"AetherBoard/internal/mirror"
	"AetherBoard/internal/progress"
	"AetherBoard/internal/ui"
)

const CustomURLScheme = "aether://"

func main() {
	path := config.PathFromEnv()
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(cfg)

	args := os.Args
	if len(args) > 1 && strings.HasPrefix(args[1], CustomURLScheme) {
		runViewer(args[1])
	} else {
		runHost(cfg, path)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	board.SetLogger(logger)
	config.SetLogger(logger)
	mirror.SetLogger(logger)
}

func runHost(cfg *config.Config, path string) {
	slog.Info("Starting as HOST")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := ui.Host{Config: cfg, Tracker: progress.NewTracker(), ConfigPath: path}

	if cfg.Mirror.Enabled {
		m := mirror.New(cfg.Mirror.MaxWidth)
		defer m.Close()

		go func() {
			if err := m.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Mirror.Port)); err != nil {
				slog.Error("[mirror] server stopped", "err", err)
			}
		}()

		frames := make(chan mirror.Frame, 4)
		defer close(frames)
		go m.Feed(frames)
		h.Frames = frames

		if cfg.Mirror.Advertise {
			server, err := mirror.Advertise(cfg.Mirror.Port)
			if err != nil {
				slog.Warn("[mirror] mDNS advertise failed", "err", err)
			} else {
				defer server.Shutdown()
			}
		}

		h.ShareLink = fmt.Sprintf("%s%s:%d", CustomURLScheme, mirror.OutgoingIP(), cfg.Mirror.Port)
		slog.Info("[mirror] live", "link", h.ShareLink)
	}

	ui.RunApp(h)
}

// runViewer opens the read-only viewer. "aether://" alone browses the
// local network for a board.
func runViewer(link string) {
	slog.Info("Starting as VIEWER")
	address := strings.TrimPrefix(link, CustomURLScheme)
	address = strings.TrimSuffix(address, "/")
	ui.RunViewer(address)
}

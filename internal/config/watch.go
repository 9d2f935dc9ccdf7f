package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads path whenever it changes and calls onChange with the new
// configuration. A file that fails to load is logged and the previous
// configuration stays in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors
// which replace the file on save keep being followed.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Clean(path)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger().Warn("[config] watcher error", "err", err)

		case <-timer.C:
			cfg, err := Load(path)
			if err != nil {
				logger().Warn("[config] reload failed, keeping previous settings", "path", path, "err", err)
				continue
			}
			logger().Info("[config] reloaded", "path", path)
			onChange(cfg)
		}
	}
}

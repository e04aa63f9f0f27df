package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/akmonengine/dice"
	"github.com/fsnotify/fsnotify"
)

// watchConfig reloads path on every change and sends the valid results.
// Only the latest pending config is kept. The directory is watched rather
// than the file so that editors replacing the file are seen too.
func watchConfig(ctx context.Context, path string, reduced bool, logger *slog.Logger) (<-chan dice.Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}

	configs := make(chan dice.Config, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher", "error", err)
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
					continue
				}

				cfg, err := dice.LoadConfig(target)
				if err != nil {
					logger.Warn("config reload failed", "path", target, "error", err)
					continue
				}
				if reduced {
					cfg = dice.ReducedFidelity(cfg)
				}

				// Replace a config nobody picked up yet
				select {
				case <-configs:
				default:
				}
				configs <- cfg
				logger.Info("config reloaded", "path", target)
			}
		}
	}()

	return configs, nil
}

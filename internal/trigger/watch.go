package trigger

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/models"
)

// ReloadCallback is called with the freshly loaded rule set after the rules
// file changes on disk.
type ReloadCallback func(rules []models.Rule)

// Watch monitors the rules file until ctx is cancelled and invokes cb on
// content changes. The parent directory is watched rather than the file
// itself: editors and `rules import` replace the file by rename, which would
// otherwise drop the watch. Reloads are debounced and gated on the file's
// checksum so editor write storms produce a single reload.
func Watch(ctx context.Context, rulesPath string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(rulesPath)
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("rules watcher: started", slog.String("path", rulesPath))

	lastSum := checksum.File(rulesPath)

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("rules watcher: stopped")
			return nil

		case <-reloadCh:
			sum := checksum.File(rulesPath)
			if sum == lastSum {
				continue
			}
			lastSum = sum

			rules, loadErr := LoadRules(rulesPath)
			if loadErr != nil {
				logger.Warn("rules watcher: reload failed", slog.String("error", loadErr.Error()))
				continue
			}
			logger.Info("rules watcher: reloaded", slog.Int("rules", len(rules)))
			if cb != nil {
				cb(rules)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(rulesPath) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("rules watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

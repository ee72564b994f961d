package listener

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// GrantsCallback receives the granted permissions after each reload.
type GrantsCallback func(granted []Permission)

// WatchGrants watches the grants file and calls cb with the reloaded grants
// whenever it changes, until ctx is cancelled. The parent directory is
// watched so editors that replace the file by rename are handled.
func WatchGrants(ctx context.Context, path string, logger *slog.Logger, cb GrantsCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	logger.Info("grants watcher: started", slog.String("path", target))

	// Bursts of write events are coalesced into one reload.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(100 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(100 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("grants watcher: stopped")
			return nil

		case <-reloadCh:
			granted, err := LoadGrants(target)
			if err != nil {
				logger.Warn("grants watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("grants watcher: reloaded", slog.Int("granted", len(granted)))
			cb(granted)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("grants watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

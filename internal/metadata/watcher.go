package metadata

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Loader reads the collection from the file at path.
type Loader func(path string) (Collection, error)

const reloadDelay = 200 * time.Millisecond

// Watch reloads the collection whenever the file at path changes, until
// ctx is cancelled. The parent directory is watched so that editors which
// replace the file by rename are picked up. Bursts of events are
// debounced into one reload; a failed reload keeps the previous
// collection.
func Watch(ctx context.Context, path string, load Loader, r *Responder, logger *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("metadata watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDelay)
		} else {
			reloadTimer.Reset(reloadDelay)
		}
		reloadCh = reloadTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("metadata watcher: stopped")
			return nil

		case <-reloadCh:
			reloadCh = nil
			c, err := load(abs)
			if err != nil {
				logger.Warn("metadata watcher: reload failed",
					slog.String("path", abs),
					slog.String("error", err.Error()))
				continue
			}
			r.Update(c)
			logger.Info("metadata watcher: reloaded", slog.String("image_base", r.Collection().ImageBase))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("metadata watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

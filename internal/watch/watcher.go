// Package watch triggers aggregation runs when new daily notes land in the
// input directory.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
)

// dailyNameRe matches a daily-note file name stem.
var dailyNameRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Watch starts an fsnotify watcher on dir (the absolute input root) and
// calls trigger after a quiet period whenever daily-note files are created
// or written. Triggers are debounced so a burst of sync writes causes one
// run. Watch returns when ctx is cancelled.
//
// Runs themselves stay serialized: trigger is invoked from this single loop,
// never concurrently.
func Watch(ctx context.Context, dir, ext string, debounce time.Duration, logger *slog.Logger, trigger func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			trigger()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Ext(name) != ext {
				continue
			}
			if !dailyNameRe.MatchString(name[:len(name)-len(ext)]) {
				continue
			}
			logger.Debug("watcher: daily note changed", slog.String("name", name))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

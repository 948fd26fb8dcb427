package sync

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches a burst of file events into one run. Editors often
// fire several events per save.
const debounceWindow = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the tree root and re-runs the full
// reconciliation after each debounced burst of markdown changes, until ctx
// is cancelled.
//
// The engine's own pulls and exports also fire events; the run they trigger
// finds both sides already equalized and settles to all-skip, so there is no
// feedback loop. New directories created at runtime are added to the watch
// list.
func (e *Engine) Watch(ctx context.Context, root, userID string, opts Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	e.log.Info("watcher: started", slog.String("root", root))

	var runTimer *time.Timer
	var runCh <-chan time.Time

	scheduleRun := func() {
		if runTimer == nil {
			runTimer = time.NewTimer(debounceWindow)
			runCh = runTimer.C
		} else {
			runTimer.Reset(debounceWindow)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if runTimer != nil {
				runTimer.Stop()
			}
			e.log.Info("watcher: stopped")
			return nil

		case <-runCh:
			report, runErr := e.Run(ctx, userID, opts)
			if runErr != nil {
				e.log.Error("watcher: run failed", slog.String("error", runErr.Error()))
				continue
			}
			if report.Changed() {
				e.log.Info("watcher: run applied changes",
					slog.Int("file_to_db", report.FileToDB),
					slog.Int("db_to_file", report.DBToFile),
					slog.Int("created_in_db", report.CreatedInDB),
					slog.Int("created_as_file", report.CreatedAsFile))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						e.log.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRun()
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			scheduleRun()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

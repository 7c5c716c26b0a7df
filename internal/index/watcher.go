package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/storage"
)

// Change kinds reported to an EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind, date string)

const reconcileDelay = 200 * time.Millisecond

// Watch runs an fsnotify watcher on inboxDir and keeps the index in step with
// the day logs until ctx is cancelled. cb, if non-nil, is called after each
// successful index mutation.
//
// Atomic replaces arrive as a rename of a temp file onto the log, which
// fsnotify reports as a Create of the target. Renames away from a log trigger
// a debounced reconciliation pass.
func Watch(ctx context.Context, db DiaryIndex, store storage.Provider, inboxDir string, logger *slog.Logger, cb EventCallback) error {
	if err := os.MkdirAll(inboxDir, 0o755); err != nil {
		return fmt.Errorf("index: watch: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("index: watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(inboxDir); err != nil {
		return fmt.Errorf("index: watch %s: %w", inboxDir, err)
	}
	logger.Info("watcher: started", slog.String("dir", inboxDir))

	notify := func(kind, date string) {
		if cb != nil {
			cb(kind, date)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			date, isLog := eventlog.DateFromName(name)
			if !isLog {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", name), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := IndexDay(db, date, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("date", date), slog.String("error", idxErr.Error()))
					continue
				}
				kind := KindUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = KindCreated
				}
				logger.Debug("watcher: indexed", slog.String("date", date), slog.String("op", kind))
				notify(kind, date)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteDay(date); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("date", date), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("date", date))
				notify(KindDeleted, date)

			case ev.Op&fsnotify.Rename != 0:
				if delErr := db.DeleteDay(date); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("date", date), slog.String("error", delErr.Error()))
				} else {
					notify(KindDeleted, date)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes indexed days whose log is gone and indexes logs that
// are missing or stale.
func reconcile(db DiaryIndex, store storage.Provider, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List(eventlog.Ext)
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]storage.FileMeta, len(metas))
	for _, m := range metas {
		if date, ok := eventlog.DateFromName(m.Path); ok {
			disk[date] = m
		}
	}

	for d := range checksums {
		if _, ok := disk[d]; !ok {
			if delErr := db.DeleteDay(d); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("date", d))
				notify(KindDeleted, d)
			}
		}
	}

	for d, m := range disk {
		prev, known := checksums[d]
		if prev == m.Checksum {
			continue
		}
		data, readErr := store.Read(m.Path)
		if readErr != nil {
			continue
		}
		if idxErr := IndexDay(db, d, data); idxErr == nil {
			kind := KindUpdated
			if !known {
				kind = KindCreated
			}
			notify(kind, d)
		}
	}
}

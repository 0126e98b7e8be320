package index

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/apperr"
)

const reconcileDelay = 200 * time.Millisecond

// Watch follows changes to the posts directory root until ctx is cancelled.
// Every change to a post file invalidates src, updates the index and calls
// cb (if non-nil). The directory is flat, so subdirectories are not watched.
//
// fsnotify reports a rename only for the old name; the new name arrives as a
// Create when it stays inside root. Renames also schedule a short
// reconciliation pass to catch anything missed.
func Watch(ctx context.Context, db PostIndex, src Source, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root = filepath.Clean(root)
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

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
			src.Invalidate()
			if _, err := reconcile(ctx, db, src, logger, cb); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Dir(ev.Name) != root {
				continue
			}
			id, isPost := src.IDFor(filepath.Base(ev.Name))
			if !isPost {
				continue
			}
			src.Invalidate()

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				indexOne(ctx, db, src, id, logger, cb)
			case ev.Op&fsnotify.Remove != 0:
				removeOne(db, id, logger, cb)
			case ev.Op&fsnotify.Rename != 0:
				removeOne(db, id, logger, cb)
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

// indexOne reloads a single post and upserts it when its content changed.
func indexOne(ctx context.Context, db PostIndex, src Source, id string, logger *slog.Logger, cb EventCallback) {
	p, err := src.LoadOne(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		removeOne(db, id, logger, cb)
		return
	}
	if err != nil {
		// Editors often save in several steps; the next write event retries.
		logger.Warn("watcher: load failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}

	prev, err := db.GetChecksum(id)
	if err != nil {
		logger.Warn("watcher: checksum lookup failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}
	if prev == p.Checksum {
		return
	}
	if err := db.UpsertPost(RowFromPost(p), p.Body); err != nil {
		logger.Warn("watcher: index failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}

	kind := ChangeUpdated
	if prev == "" {
		kind = ChangeCreated
	}
	logger.Debug("watcher: indexed", slog.String("id", id), slog.String("op", kind))
	notify(cb, kind, id)
}

func removeOne(db PostIndex, id string, logger *slog.Logger, cb EventCallback) {
	prev, _ := db.GetChecksum(id)
	if prev == "" {
		return
	}
	if err := db.DeletePost(id); err != nil {
		logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}
	logger.Debug("watcher: deleted", slog.String("id", id))
	notify(cb, ChangeDeleted, id)
}

package index

import (
	"context"
	"fmt"
	"log/slog"
)

// Change kinds passed to an EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// EventCallback is called after each change the index applies on its own
// initiative (watcher events and reconciliation).
type EventCallback func(kind, id string)

// SyncResult counts what a sync pass did.
type SyncResult struct {
	Indexed   int `json:"indexed"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Sync brings the index in line with src:
//   - posts whose checksum changed (or that are new) are loaded and upserted
//   - indexed posts that no longer exist are deleted
//
// A listing failure (unreadable directory, malformed front matter, duplicate
// IDs) aborts the pass. Failures on single posts are logged and skipped.
func Sync(ctx context.Context, db PostIndex, src Source, logger *slog.Logger) (SyncResult, error) {
	src.Invalidate()
	return reconcile(ctx, db, src, logger, nil)
}

func reconcile(ctx context.Context, db PostIndex, src Source, logger *slog.Logger, cb EventCallback) (SyncResult, error) {
	var res SyncResult

	posts, err := src.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("index: sync: %w", err)
	}
	indexed, err := db.AllChecksums()
	if err != nil {
		return res, err
	}

	live := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		live[p.ID] = struct{}{}

		prev, known := indexed[p.ID]
		if known && prev == p.Checksum {
			res.Unchanged++
			continue
		}

		full, err := src.LoadOne(ctx, p.ID)
		if err != nil {
			logger.Warn("sync: load failed", slog.String("id", p.ID), slog.String("error", err.Error()))
			continue
		}
		if err := db.UpsertPost(RowFromPost(full), full.Body); err != nil {
			logger.Warn("sync: index failed", slog.String("id", p.ID), slog.String("error", err.Error()))
			continue
		}
		res.Indexed++
		logger.Debug("sync: indexed", slog.String("id", p.ID))

		kind := ChangeUpdated
		if !known {
			kind = ChangeCreated
		}
		notify(cb, kind, p.ID)
	}

	for id := range indexed {
		if _, ok := live[id]; ok {
			continue
		}
		if err := db.DeletePost(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		res.Removed++
		logger.Debug("sync: removed stale", slog.String("id", id))
		notify(cb, ChangeDeleted, id)
	}

	return res, nil
}

func notify(cb EventCallback, kind, id string) {
	if cb != nil {
		cb(kind, id)
	}
}

// ABOUTME: Record index maintenance: id -> (user, kind, date, bucket path).
// ABOUTME: Writes and deletes are best effort; failures are logged, not returned.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/storage"
)

// writeIndex persists the entry and reports whether it succeeded.
func (e *Engine) writeIndex(ctx context.Context, entry models.IndexEntry) bool {
	path := storage.IndexPath(entry.UserID, entry.Kind, entry.RecordID)
	data, err := marshalJSON(entry)
	if err == nil {
		err = e.store.Put(ctx, path, data)
	}
	if err != nil {
		e.log.Warn("index write failed",
			"index_inconsistent", true,
			"user_id", entry.UserID,
			"kind", entry.Kind,
			"record_id", entry.RecordID,
			"error", err)
		return false
	}
	return true
}

// readIndex resolves a record id. Missing entries and entries that do not
// belong to (user, kind) are both ErrRecordNotFound.
func (e *Engine) readIndex(ctx context.Context, userID string, kind models.MetricKind, recordID string) (*models.IndexEntry, error) {
	if !storage.ValidSegment(recordID) {
		return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, recordID)
	}
	path := storage.IndexPath(userID, kind, recordID)
	data, err := e.store.Get(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if err != nil {
		return nil, storeErr("read index", path, err)
	}

	entry, err := unmarshalJSON[models.IndexEntry](data)
	if err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if entry.UserID != userID || entry.Kind != kind || entry.RecordID != recordID {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	if entry.BucketPath == "" {
		entry.BucketPath = storage.BucketPath(userID, kind, entry.Date)
	}
	return entry, nil
}

// deleteIndex removes the given record ids' entries in one batch and
// reports whether it succeeded.
func (e *Engine) deleteIndex(ctx context.Context, userID string, kind models.MetricKind, recordIDs ...string) bool {
	if len(recordIDs) == 0 {
		return true
	}
	paths := make([]string, 0, len(recordIDs))
	for _, id := range recordIDs {
		paths = append(paths, storage.IndexPath(userID, kind, id))
	}
	if err := e.store.DeleteMany(ctx, paths); err != nil {
		e.log.Warn("index delete failed",
			"index_inconsistent", true,
			"user_id", userID,
			"kind", kind,
			"records", len(recordIDs),
			"error", err)
		return false
	}
	return true
}

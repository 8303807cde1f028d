// ABOUTME: Deletion coordinator: remove one sample by id or wipe a whole day.
// ABOUTME: Keeps the record index in step with buckets on a best-effort basis.
package engine

import (
	"context"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
)

// Delete dispatches to DeleteByDate or DeleteByID.
func (e *Engine) Delete(ctx context.Context, userID string, kind models.MetricKind, sel Selector) (*models.DeleteResult, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	if sel.RecordID != "" {
		return e.DeleteByID(ctx, userID, kind, sel.RecordID)
	}
	return e.DeleteByDate(ctx, userID, kind, sel.Date)
}

// DeleteByID removes the sample with recordID and then its index entry.
// If the index resolves but the bucket no longer holds the sample, nothing
// is deleted and the error is nil.
func (e *Engine) DeleteByID(ctx context.Context, userID string, kind models.MetricKind, recordID string) (*models.DeleteResult, error) {
	op, err := e.resolve(userID, kind)
	if err != nil {
		return nil, err
	}
	return op.deleteByID(ctx, userID, op.desc, recordID)
}

func (e *Engine) deleteSample(ctx context.Context, userID string, desc registry.Descriptor, recordID string) (*models.DeleteResult, error) {
	entry, err := e.readIndex(ctx, userID, desc.Kind, recordID)
	if err != nil {
		return nil, err
	}
	bucket, _, err := e.loadBucketAt(ctx, entry.BucketPath, userID, desc, entry.Date)
	if err != nil {
		return nil, err
	}

	i := bucket.FindSample(recordID)
	if i < 0 {
		e.log.Info("nothing to delete",
			"user_id", userID, "kind", desc.Kind, "record_id", recordID, "date", entry.Date)
		return &models.DeleteResult{RemainingSampleCount: len(bucket.Samples)}, nil
	}

	bucket.Samples = append(bucket.Samples[:i], bucket.Samples[i+1:]...)
	if err := e.saveBucket(ctx, bucket); err != nil {
		return nil, err
	}

	return &models.DeleteResult{
		DeletedRecordID:      recordID,
		Deleted:              1,
		IndexEntryDeleted:    e.deleteIndex(ctx, userID, desc.Kind, recordID),
		RemainingSampleCount: len(bucket.Samples),
	}, nil
}

// DeleteByDate clears everything stored for the UTC day containing date.
func (e *Engine) DeleteByDate(ctx context.Context, userID string, kind models.MetricKind, date time.Time) (*models.DeleteResult, error) {
	op, err := e.resolve(userID, kind)
	if err != nil {
		return nil, err
	}
	bucket, found, err := e.loadBucket(ctx, userID, op.desc, models.DateKey(date))
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.DeleteResult{IndexEntryDeleted: true}, nil
	}
	return op.clearDay(ctx, op.desc, bucket)
}

func (e *Engine) clearSamples(ctx context.Context, desc registry.Descriptor, b *models.DayBucket) (*models.DeleteResult, error) {
	ids := make([]string, 0, len(b.Samples))
	for _, s := range b.Samples {
		ids = append(ids, s.ID)
	}
	// Index entries go first so a failed bucket write leaves samples
	// unindexed rather than index entries pointing at nothing.
	indexDeleted := e.deleteIndex(ctx, b.UserID, desc.Kind, ids...)

	b.Samples = nil
	if err := e.saveBucket(ctx, b); err != nil {
		return nil, err
	}
	return &models.DeleteResult{
		Deleted:           len(ids),
		IndexEntryDeleted: indexDeleted,
	}, nil
}

func (e *Engine) clearAggregate(ctx context.Context, desc registry.Descriptor, b *models.DayBucket) (*models.DeleteResult, error) {
	deleted := b.Count()
	b.Aggregate = &models.Aggregate{Unit: desc.Unit}
	if err := e.saveBucket(ctx, b); err != nil {
		return nil, err
	}
	return &models.DeleteResult{
		Deleted:           deleted,
		IndexEntryDeleted: true,
	}, nil
}

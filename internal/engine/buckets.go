// ABOUTME: Day-bucket persistence: load, create-on-miss, and save bucket documents.
// ABOUTME: Absent buckets read as empty; store failures surface as StoreError.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/harperreed/healthstore/internal/storage"
)

func newBucket(userID string, desc registry.Descriptor, date string) *models.DayBucket {
	b := &models.DayBucket{
		UserID:   userID,
		Kind:     desc.Kind,
		Date:     date,
		Strategy: desc.Strategy,
	}
	if desc.IsAggregate() {
		b.Aggregate = &models.Aggregate{Unit: desc.Unit}
	}
	return b
}

// loadBucket reads the bucket for (user, kind, date). A missing document
// yields a fresh empty bucket and found=false.
func (e *Engine) loadBucket(ctx context.Context, userID string, desc registry.Descriptor, date string) (*models.DayBucket, bool, error) {
	return e.loadBucketAt(ctx, storage.BucketPath(userID, desc.Kind, date), userID, desc, date)
}

func (e *Engine) loadBucketAt(ctx context.Context, path, userID string, desc registry.Descriptor, date string) (*models.DayBucket, bool, error) {
	data, err := e.store.Get(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return newBucket(userID, desc, date), false, nil
	}
	if err != nil {
		return nil, false, storeErr("read bucket", path, err)
	}

	b, err := unmarshalJSON[models.DayBucket](data)
	if err != nil {
		return nil, false, fmt.Errorf("decode bucket %s: %w", path, err)
	}
	// Older or hand-written documents may omit identity fields.
	b.UserID, b.Kind, b.Date, b.Strategy = userID, desc.Kind, date, desc.Strategy
	if desc.IsAggregate() && b.Aggregate == nil {
		b.Aggregate = &models.Aggregate{Unit: desc.Unit}
	}
	return b, true, nil
}

func (e *Engine) saveBucket(ctx context.Context, b *models.DayBucket) error {
	path := storage.BucketPath(b.UserID, b.Kind, b.Date)
	b.UpdatedAt = e.now().UTC()
	data, err := marshalJSON(b)
	if err != nil {
		return fmt.Errorf("encode bucket %s: %w", path, err)
	}
	if err := e.store.Put(ctx, path, data); err != nil {
		return storeErr("write bucket", path, err)
	}
	return nil
}

func toView(b *models.DayBucket) *models.BucketView {
	v := &models.BucketView{
		UserID:    b.UserID,
		Kind:      b.Kind,
		Date:      b.Date,
		Strategy:  b.Strategy,
		Samples:   b.Samples,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Aggregate != nil {
		agg := *b.Aggregate
		v.Aggregate = &agg
	}
	return v
}

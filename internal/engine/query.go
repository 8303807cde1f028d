// ABOUTME: Query resolver: read a whole day bucket or a single sample by id.
// ABOUTME: Id lookups go through the record index.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
)

// Selector picks either a calendar day or a single record. Exactly one of
// Date and RecordID must be set.
type Selector struct {
	Date     time.Time
	RecordID string
}

func (s Selector) validate() error {
	hasDate := !s.Date.IsZero()
	hasID := s.RecordID != ""
	switch {
	case hasDate && hasID:
		return ErrAmbiguousSelector
	case !hasDate && !hasID:
		return ErrMissingSelector
	}
	return nil
}

// Query dispatches to GetByDate or GetByID.
func (e *Engine) Query(ctx context.Context, userID string, kind models.MetricKind, sel Selector) (*models.BucketView, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	if sel.RecordID != "" {
		return e.GetByID(ctx, userID, kind, sel.RecordID)
	}
	return e.GetByDate(ctx, userID, kind, sel.Date)
}

// GetByDate returns the bucket for the UTC day containing date. A day with
// no data yields an empty view, not an error.
func (e *Engine) GetByDate(ctx context.Context, userID string, kind models.MetricKind, date time.Time) (*models.BucketView, error) {
	op, err := e.resolve(userID, kind)
	if err != nil {
		return nil, err
	}
	bucket, _, err := e.loadBucket(ctx, userID, op.desc, models.DateKey(date))
	if err != nil {
		return nil, err
	}
	return toView(bucket), nil
}

// GetByID returns a view holding the single sample with recordID.
func (e *Engine) GetByID(ctx context.Context, userID string, kind models.MetricKind, recordID string) (*models.BucketView, error) {
	op, err := e.resolve(userID, kind)
	if err != nil {
		return nil, err
	}
	return op.getByID(ctx, userID, op.desc, recordID)
}

func (e *Engine) sampleByID(ctx context.Context, userID string, desc registry.Descriptor, recordID string) (*models.BucketView, error) {
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
		e.log.Warn("indexed sample missing from bucket",
			"index_inconsistent", true,
			"user_id", userID,
			"kind", desc.Kind,
			"record_id", recordID,
			"date", entry.Date)
		return nil, fmt.Errorf("%w: %s", ErrSampleMissing, recordID)
	}

	view := toView(bucket)
	view.Samples = []models.Sample{bucket.Samples[i]}
	return view, nil
}

func notAddressable(_ context.Context, _ string, desc registry.Descriptor, recordID string) (*models.BucketView, error) {
	return nil, fmt.Errorf("%w: %s %s", ErrNotAddressable, desc.Kind, recordID)
}

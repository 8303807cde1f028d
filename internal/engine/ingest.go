// ABOUTME: Ingestion pipeline: validate, split at day boundaries, dedup, write.
// ABOUTME: Sample kinds append and index; aggregate kinds fold into a running value.
package engine

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/shopspring/decimal"
)

// Ingest stores rec under (userID, kind) and returns one result per
// fragment. Validation errors are returned before any I/O. A failure on one
// fragment does not undo the others: its result carries Err and the
// returned error joins every fragment failure.
func (e *Engine) Ingest(ctx context.Context, userID string, kind models.MetricKind, rec *models.Record) ([]models.IngestResult, error) {
	op, err := e.resolve(userID, kind)
	if err != nil {
		return nil, err
	}
	if err := validateRecord(op.desc, rec); err != nil {
		return nil, err
	}

	frags := splitRecord(rec, op.desc.ProrateFields)
	results := make([]models.IngestResult, 0, len(frags))
	var errs []error
	for _, f := range frags {
		res, err := op.ingest(ctx, userID, op.desc, f)
		if err != nil {
			res.Err = err
			errs = append(errs, err)
		}
		results = append(results, res)
	}
	if len(frags) > 1 {
		e.log.Debug("split record across days",
			"user_id", userID, "kind", kind, "fragments", len(frags))
	}
	return results, errors.Join(errs...)
}

func (e *Engine) ingestSample(ctx context.Context, userID string, desc registry.Descriptor, f fragment) (models.IngestResult, error) {
	res := models.IngestResult{Date: f.Date}
	bucket, _, err := e.loadBucket(ctx, userID, desc, f.Date)
	if err != nil {
		return res, err
	}

	sig := signature(desc, f.Record)
	for _, s := range bucket.Samples {
		if s.Signature == sig {
			res.RecordID = s.ID
			res.Duplicate = true
			res.Count = len(bucket.Samples)
			return res, nil
		}
	}

	sample := models.Sample{
		ID:        e.newID(),
		Time:      f.Record.Time,
		StartTime: f.Record.StartTime,
		EndTime:   f.Record.EndTime,
		Values:    f.Record.Values,
		Fields:    f.Record.Fields,
		Metadata:  f.Record.Metadata,
		Signature: sig,
		CreatedAt: e.now().UTC(),
	}
	bucket.Samples = append(bucket.Samples, sample)
	slices.SortStableFunc(bucket.Samples, func(a, b models.Sample) int {
		return sampleAnchor(a).Compare(sampleAnchor(b))
	})
	if err := e.saveBucket(ctx, bucket); err != nil {
		return res, err
	}

	res.RecordID = sample.ID
	res.Count = len(bucket.Samples)
	res.IndexWritten = e.writeIndex(ctx, models.IndexEntry{
		RecordID:   sample.ID,
		UserID:     userID,
		Kind:       desc.Kind,
		Date:       f.Date,
		BucketPath: storage.BucketPath(userID, desc.Kind, f.Date),
	})
	return res, nil
}

func (e *Engine) ingestAggregate(ctx context.Context, userID string, desc registry.Descriptor, f fragment) (models.IngestResult, error) {
	res := models.IngestResult{Date: f.Date}
	bucket, _, err := e.loadBucket(ctx, userID, desc, f.Date)
	if err != nil {
		return res, err
	}

	agg := bucket.Aggregate
	agg.Value = combine(desc.Combine, agg.Value, agg.SampleCount, f.Record.Values[desc.ValueField])
	agg.SampleCount++
	if agg.Unit == "" {
		agg.Unit = desc.Unit
	}
	if err := e.saveBucket(ctx, bucket); err != nil {
		return res, err
	}

	// Aggregate contributions get an id for the caller but no index entry.
	res.RecordID = e.newID()
	res.Count = agg.SampleCount
	return res, nil
}

// combine folds v into a running value that already covers n contributions.
func combine(rule models.CombineRule, current float64, n int, v float64) float64 {
	cur := decimal.NewFromFloat(current)
	val := decimal.NewFromFloat(v)
	if rule == models.CombineMean {
		count := decimal.NewFromInt(int64(n))
		return cur.Mul(count).Add(val).Div(count.Add(decimal.NewFromInt(1))).InexactFloat64()
	}
	return cur.Add(val).InexactFloat64()
}

func sampleAnchor(s models.Sample) time.Time {
	if !s.StartTime.IsZero() {
		return s.StartTime
	}
	return s.Time
}

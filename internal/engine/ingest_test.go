// ABOUTME: Tests for the ingestion pipeline across both storage strategies.
// ABOUTME: Covers aggregation, dedup, split writes, index failures, and partial fragment failures.
package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestSumAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, v := range []float64{100, 250.5, 49.5} {
		results, err := f.engine.Ingest(ctx, "u1", models.KindSteps,
			models.NewInstant(utc("2025-03-01T10:00:00Z")).WithValue("count", v))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].IndexWritten)
		assert.NotEmpty(t, results[0].RecordID)
	}

	view, err := f.engine.GetByDate(ctx, "u1", models.KindSteps, utc("2025-03-01T00:00:00Z"))
	require.NoError(t, err)
	require.NotNil(t, view.Aggregate)
	assert.InDelta(t, 400, view.Aggregate.Value, 1e-9)
	assert.Equal(t, 3, view.Aggregate.SampleCount)
	assert.Equal(t, "steps", view.Aggregate.Unit)
	assert.Equal(t, models.RunningAggregate, view.Strategy)

	// Aggregate kinds never write index entries.
	docs, err := f.mem.List(ctx, storage.KindPrefix("u1", models.KindSteps)+"recordIndex/")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestIngestMeanAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var last models.IngestResult
	for _, v := range []float64{60, 70, 80} {
		results, err := f.engine.Ingest(ctx, "u1", models.KindHeartRate,
			models.NewInstant(utc("2025-03-01T10:00:00Z")).WithValue("bpm", v))
		require.NoError(t, err)
		last = results[0]
	}
	assert.Equal(t, 3, last.Count)

	view, err := f.engine.GetByDate(ctx, "u1", models.KindHeartRate, utc("2025-03-01T00:00:00Z"))
	require.NoError(t, err)
	assert.InDelta(t, 70, view.Aggregate.Value, 1e-9)
	assert.Equal(t, 3, view.Aggregate.SampleCount)
}

func TestCombine(t *testing.T) {
	assert.InDelta(t, 0.3, combine(models.CombineSum, 0.1, 1, 0.2), 1e-15)
	assert.InDelta(t, 5, combine(models.CombineMean, 0, 0, 5), 1e-15)
	assert.InDelta(t, 2, combine(models.CombineMean, 1, 2, 4), 1e-15)
}

func TestIngestSplitsAggregateAcrossMidnight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.engine.Ingest(ctx, "u1", models.KindSteps,
		models.NewInterval(utc("2025-03-01T22:30:00Z"), utc("2025-03-02T00:30:00Z")).WithValue("count", 600))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2025-03-01", results[0].Date)
	assert.Equal(t, "2025-03-02", results[1].Date)
	assert.NotEqual(t, results[0].RecordID, results[1].RecordID)

	day1, err := f.engine.GetByDate(ctx, "u1", models.KindSteps, utc("2025-03-01T12:00:00Z"))
	require.NoError(t, err)
	day2, err := f.engine.GetByDate(ctx, "u1", models.KindSteps, utc("2025-03-02T12:00:00Z"))
	require.NoError(t, err)

	assert.InDelta(t, 450, day1.Aggregate.Value, 1e-9)
	assert.InDelta(t, 150, day2.Aggregate.Value, 1e-9)
	assert.Equal(t, 1, day1.Aggregate.SampleCount)
	assert.Equal(t, 1, day2.Aggregate.SampleCount)
	assert.Contains(t, f.logs.String(), "split record across days")
}

func TestIngestSampleAndIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := models.NewInstant(utc("2025-03-01T07:15:00Z")).
		WithValue("kg", 81.4).
		WithMetadata("source", "scale")
	results, err := f.engine.Ingest(ctx, "u1", models.KindWeight, rec)
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "rec-001", res.RecordID)
	assert.Equal(t, "2025-03-01", res.Date)
	assert.True(t, res.IndexWritten)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, res.Count)

	data, err := f.mem.Get(ctx, storage.IndexPath("u1", models.KindWeight, "rec-001"))
	require.NoError(t, err)
	entry, err := unmarshalJSON[models.IndexEntry](data)
	require.NoError(t, err)
	assert.Equal(t, models.IndexEntry{
		RecordID:   "rec-001",
		UserID:     "u1",
		Kind:       models.KindWeight,
		Date:       "2025-03-01",
		BucketPath: storage.BucketPath("u1", models.KindWeight, "2025-03-01"),
	}, *entry)

	view, err := f.engine.GetByID(ctx, "u1", models.KindWeight, "rec-001")
	require.NoError(t, err)
	require.Len(t, view.Samples, 1)
	assert.Equal(t, 81.4, view.Samples[0].Values["kg"])
	assert.Equal(t, "scale", view.Samples[0].Metadata["source"])
	assert.Equal(t, fixedNow, view.Samples[0].CreatedAt)
}

func TestIngestDedupIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := utc("2025-03-01T07:15:00Z")

	first, err := f.engine.Ingest(ctx, "u1", models.KindWeight, models.NewInstant(at).WithValue("kg", 81.4))
	require.NoError(t, err)
	before, err := f.mem.Get(ctx, storage.BucketPath("u1", models.KindWeight, "2025-03-01"))
	require.NoError(t, err)

	again, err := f.engine.Ingest(ctx, "u1", models.KindWeight,
		models.NewInstant(at).WithValue("kg", 81.4).WithMetadata("source", "retry"))
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.True(t, again[0].Duplicate)
	assert.Equal(t, first[0].RecordID, again[0].RecordID)
	assert.Equal(t, 1, again[0].Count)

	after, err := f.mem.Get(ctx, storage.BucketPath("u1", models.KindWeight, "2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "duplicate must not rewrite the bucket")

	other, err := f.engine.Ingest(ctx, "u1", models.KindWeight, models.NewInstant(at).WithValue("kg", 81.5))
	require.NoError(t, err)
	assert.False(t, other[0].Duplicate)
	assert.Equal(t, 2, other[0].Count)
}

func TestIngestSplitSampleDedupsPerFragment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newSession := func() *models.Record {
		return models.NewInterval(utc("2025-03-01T23:00:00Z"), utc("2025-03-02T01:00:00Z")).
			WithField("exercise_type", "running").
			WithValue("distance", 4000).
			WithValue("energy", 500)
	}

	results, err := f.engine.Ingest(ctx, "u1", models.KindExerciseSession, newSession())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.IndexWritten)
		view, err := f.engine.GetByID(ctx, "u1", models.KindExerciseSession, r.RecordID)
		require.NoError(t, err)
		assert.Equal(t, r.Date, view.Date)
		assert.InDelta(t, 2000, view.Samples[0].Values["distance"], 1e-9)
		assert.InDelta(t, 250, view.Samples[0].Values["energy"], 1e-9)
		assert.Equal(t, "running", view.Samples[0].Fields["exercise_type"])
	}

	again, err := f.engine.Ingest(ctx, "u1", models.KindExerciseSession, newSession())
	require.NoError(t, err)
	require.Len(t, again, 2)
	for i, r := range again {
		assert.True(t, r.Duplicate)
		assert.Equal(t, results[i].RecordID, r.RecordID)
	}
}

func TestIngestSamplesSortedByTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, ts := range []string{"2025-03-01T18:00:00Z", "2025-03-01T06:00:00Z", "2025-03-01T12:00:00Z"} {
		_, err := f.engine.Ingest(ctx, "u1", models.KindBloodGlucose,
			models.NewInstant(utc(ts)).WithValue("level", 5.5))
		require.NoError(t, err)
	}

	view, err := f.engine.GetByDate(ctx, "u1", models.KindBloodGlucose, utc("2025-03-01T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, view.Samples, 3)
	assert.Equal(t, 6, view.Samples[0].Time.Hour())
	assert.Equal(t, 12, view.Samples[1].Time.Hour())
	assert.Equal(t, 18, view.Samples[2].Time.Hour())
}

func TestIngestIndexFailureIsFlagged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.failPut = storage.IsIndexPath

	results, err := f.engine.Ingest(ctx, "u1", models.KindWeight,
		models.NewInstant(utc("2025-03-01T07:15:00Z")).WithValue("kg", 81.4))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].IndexWritten)
	assert.Equal(t, 1, results[0].Count)
	assert.Contains(t, f.logs.String(), "index_inconsistent=true")

	// The sample is stored but only reachable by date.
	view, err := f.engine.GetByDate(ctx, "u1", models.KindWeight, utc("2025-03-01T00:00:00Z"))
	require.NoError(t, err)
	assert.Len(t, view.Samples, 1)

	_, err = f.engine.GetByID(ctx, "u1", models.KindWeight, results[0].RecordID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestIngestStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.failGet = func(string) bool { return true }

	results, err := f.engine.Ingest(context.Background(), "u1", models.KindSteps,
		models.NewInstant(utc("2025-03-01T10:00:00Z")).WithValue("count", 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrStoreUnavailable)
}

func TestIngestPartialFragmentFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day2 := storage.BucketPath("u1", models.KindSteps, "2025-03-02")
	f.store.failPut = func(path string) bool { return path == day2 }

	results, err := f.engine.Ingest(ctx, "u1", models.KindSteps,
		models.NewInterval(utc("2025-03-01T22:30:00Z"), utc("2025-03-02T00:30:00Z")).WithValue("count", 600))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, ErrStoreUnavailable)

	// The first fragment is not rolled back.
	view, err := f.engine.GetByDate(ctx, "u1", models.KindSteps, utc("2025-03-01T00:00:00Z"))
	require.NoError(t, err)
	assert.InDelta(t, 450, view.Aggregate.Value, 1e-9)

	_, err = f.mem.Get(ctx, day2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngestKeepsUsersApart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := utc("2025-03-01T10:00:00Z")

	_, err := f.engine.Ingest(ctx, "alice", models.KindSteps, models.NewInstant(at).WithValue("count", 10))
	require.NoError(t, err)
	results, err := f.engine.Ingest(ctx, "bob", models.KindWeight, models.NewInstant(at).WithValue("kg", 70))
	require.NoError(t, err)

	view, err := f.engine.GetByDate(ctx, "bob", models.KindSteps, at)
	require.NoError(t, err)
	assert.True(t, view.Empty())

	_, err = f.engine.GetByID(ctx, "alice", models.KindWeight, results[0].RecordID)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	docs, err := f.mem.List(ctx, storage.UserPrefix("alice"))
	require.NoError(t, err)
	for _, d := range docs {
		assert.True(t, strings.HasPrefix(d.Path, "users/alice/"))
	}
}

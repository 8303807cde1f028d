// ABOUTME: Day bucket, sample, aggregate, and index entry documents.
// ABOUTME: Also defines the result and view shapes returned by the engine.
package models

import (
	"time"
)

// DateLayout is the calendar-day format used in bucket paths.
const DateLayout = "2006-01-02"

// DayOf truncates t to midnight of its UTC calendar day.
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats the UTC calendar day of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Sample is one discrete, individually addressable measurement.
type Sample struct {
	ID        string             `json:"id" yaml:"id"`
	Time      time.Time          `json:"time,omitzero" yaml:"time,omitempty"`
	StartTime time.Time          `json:"start_time,omitzero" yaml:"start_time,omitempty"`
	EndTime   time.Time          `json:"end_time,omitzero" yaml:"end_time,omitempty"`
	Values    map[string]float64 `json:"values,omitempty" yaml:"values,omitempty"`
	Fields    map[string]string  `json:"fields,omitempty" yaml:"fields,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Signature uint64             `json:"signature" yaml:"-"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
}

// Aggregate is the running scalar of a RunningAggregate bucket.
type Aggregate struct {
	Value       float64 `json:"value" yaml:"value"`
	Unit        string  `json:"unit" yaml:"unit"`
	SampleCount int     `json:"sample_count" yaml:"sample_count"`
}

// DayBucket holds everything stored for one (user, kind, day).
type DayBucket struct {
	UserID    string          `json:"user_id"`
	Kind      MetricKind      `json:"kind"`
	Date      string          `json:"date"`
	Strategy  StorageStrategy `json:"strategy"`
	Aggregate *Aggregate      `json:"aggregate,omitempty"`
	Samples   []Sample        `json:"samples,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Count returns the sample count for either strategy.
func (b *DayBucket) Count() int {
	if b.Strategy == RunningAggregate {
		if b.Aggregate == nil {
			return 0
		}
		return b.Aggregate.SampleCount
	}
	return len(b.Samples)
}

// FindSample returns the index of the sample with id, or -1.
func (b *DayBucket) FindSample(id string) int {
	for i := range b.Samples {
		if b.Samples[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexEntry is the date-independent back reference to a sample.
type IndexEntry struct {
	RecordID   string     `json:"record_id"`
	UserID     string     `json:"user_id"`
	Kind       MetricKind `json:"kind"`
	Date       string     `json:"date"`
	BucketPath string     `json:"bucket_path"`
}

// BucketView is what queries return: a full bucket or a single sample of it.
type BucketView struct {
	UserID    string          `json:"user_id" yaml:"user_id"`
	Kind      MetricKind      `json:"kind" yaml:"kind"`
	Date      string          `json:"date" yaml:"date"`
	Strategy  StorageStrategy `json:"strategy" yaml:"strategy"`
	Aggregate *Aggregate      `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Samples   []Sample        `json:"samples,omitempty" yaml:"samples,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

// Empty reports whether the view holds no data.
func (v *BucketView) Empty() bool {
	if v.Aggregate != nil && v.Aggregate.SampleCount > 0 {
		return false
	}
	return len(v.Samples) == 0
}

// IngestResult describes what happened to one fragment of an ingested record.
type IngestResult struct {
	RecordID     string `json:"record_id"`
	Date         string `json:"date"`
	Duplicate    bool   `json:"duplicate"`
	IndexWritten bool   `json:"index_written"`
	// Count is the resulting number of samples in the bucket, or the
	// aggregate's sample count.
	Count int   `json:"count"`
	Err   error `json:"-"`
}

// DeleteResult describes the outcome of a deletion.
type DeleteResult struct {
	DeletedRecordID      string `json:"deleted_record_id,omitempty"`
	Deleted              int    `json:"deleted"`
	IndexEntryDeleted    bool   `json:"index_entry_deleted"`
	RemainingSampleCount int    `json:"remaining_sample_count"`
}

// DaySnapshot is every requested kind's view for one user and day.
type DaySnapshot struct {
	UserID string        `json:"user_id" yaml:"user_id"`
	Date   string        `json:"date" yaml:"date"`
	Views  []*BucketView `json:"views" yaml:"views"`
}

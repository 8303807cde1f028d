// ABOUTME: Record is the normalized input accepted by the ingestion pipeline.
// ABOUTME: Carries either an instant or a [start, end) interval plus value payloads.
package models

import (
	"maps"
	"time"
)

// Record is one already-validated measurement handed to the store.
// Exactly one of Time or the StartTime/EndTime pair is set.
type Record struct {
	Time      time.Time          `json:"time,omitzero"`
	StartTime time.Time          `json:"start_time,omitzero"`
	EndTime   time.Time          `json:"end_time,omitzero"`
	Values    map[string]float64 `json:"values,omitempty"`
	Fields    map[string]string  `json:"fields,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
}

// NewInstant creates a record measured at a single point in time.
func NewInstant(t time.Time) *Record {
	return &Record{Time: t}
}

// NewInterval creates a record covering [start, end).
func NewInterval(start, end time.Time) *Record {
	return &Record{StartTime: start, EndTime: end}
}

// WithValue sets a numeric value field.
func (r *Record) WithValue(name string, v float64) *Record {
	if r.Values == nil {
		r.Values = make(map[string]float64)
	}
	r.Values[name] = v
	return r
}

// WithField sets a non-numeric field such as a title or type tag.
func (r *Record) WithField(name, v string) *Record {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[name] = v
	return r
}

// WithMetadata sets an opaque metadata entry.
func (r *Record) WithMetadata(key, v string) *Record {
	if r.Metadata == nil {
		r.Metadata = make(map[string]string)
	}
	r.Metadata[key] = v
	return r
}

// IsInterval reports whether the record carries a start/end pair.
func (r *Record) IsInterval() bool {
	return !r.StartTime.IsZero() || !r.EndTime.IsZero()
}

// Anchor returns the instant that decides the record's day: Time for
// instants, StartTime for intervals.
func (r *Record) Anchor() time.Time {
	if r.IsInterval() {
		return r.StartTime
	}
	return r.Time
}

// Clone returns a deep copy so fragments never share maps.
func (r *Record) Clone() *Record {
	c := *r
	c.Values = maps.Clone(r.Values)
	c.Fields = maps.Clone(r.Fields)
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

// ABOUTME: Engine wires the metric registry to the document store.
// ABOUTME: Resolves per-kind ingest/query/delete operations once at construction.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/harperreed/healthstore/internal/storage"
)

// Options configures an Engine. Zero values pick sensible defaults.
type Options struct {
	Logger *slog.Logger
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
	// NewID mints record ids; defaults to random UUIDs.
	NewID func() string
}

// Engine is the single parameterized store for every metric kind.
// It holds no mutable state of its own: every call reads the current
// bucket, computes, and writes it back, so concurrent writers to the same
// (user, kind, day) race and the last write wins.
type Engine struct {
	store storage.DocumentStore
	log   *slog.Logger
	now   func() time.Time
	newID func() string
	ops   map[models.MetricKind]kindOps
}

// kindOps is the operation set for one kind, chosen by its strategy.
type kindOps struct {
	desc       registry.Descriptor
	ingest     func(ctx context.Context, userID string, desc registry.Descriptor, f fragment) (models.IngestResult, error)
	getByID    func(ctx context.Context, userID string, desc registry.Descriptor, recordID string) (*models.BucketView, error)
	deleteByID func(ctx context.Context, userID string, desc registry.Descriptor, recordID string) (*models.DeleteResult, error)
	clearDay   func(ctx context.Context, desc registry.Descriptor, b *models.DayBucket) (*models.DeleteResult, error)
}

// New creates an Engine over store.
func New(store storage.DocumentStore, opts Options) *Engine {
	e := &Engine{
		store: store,
		log:   opts.Logger,
		now:   opts.Now,
		newID: opts.NewID,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}

	e.ops = make(map[models.MetricKind]kindOps)
	for _, kind := range registry.Kinds() {
		desc, _ := registry.Describe(kind)
		op := kindOps{desc: desc}
		if desc.IsAggregate() {
			op.ingest = e.ingestAggregate
			op.getByID = notAddressable
			op.deleteByID = func(ctx context.Context, userID string, desc registry.Descriptor, recordID string) (*models.DeleteResult, error) {
				_, err := notAddressable(ctx, userID, desc, recordID)
				return nil, err
			}
			op.clearDay = e.clearAggregate
		} else {
			op.ingest = e.ingestSample
			op.getByID = e.sampleByID
			op.deleteByID = e.deleteSample
			op.clearDay = e.clearSamples
		}
		e.ops[kind] = op
	}
	return e
}

// resolve validates the caller's user and kind before any I/O.
func (e *Engine) resolve(userID string, kind models.MetricKind) (kindOps, error) {
	if !storage.ValidSegment(userID) {
		return kindOps{}, fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	op, ok := e.ops[kind]
	if !ok {
		return kindOps{}, fmt.Errorf("%w: %s", ErrUnknownMetricKind, kind)
	}
	return op, nil
}

// Describe exposes the registry entry for kind.
func (e *Engine) Describe(kind models.MetricKind) (registry.Descriptor, error) {
	op, ok := e.ops[kind]
	if !ok {
		return registry.Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownMetricKind, kind)
	}
	return op.desc, nil
}

// unmarshalJSON is a helper to unmarshal JSON data.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// marshalJSON is a helper to marshal data to JSON.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

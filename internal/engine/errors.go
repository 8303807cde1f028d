// ABOUTME: Error kinds returned by the ingestion, query, and deletion engine.
// ABOUTME: Storage failures are wrapped in StoreError, which matches ErrStoreUnavailable.
package engine

import (
	"errors"
	"fmt"

	"github.com/harperreed/healthstore/internal/registry"
)

var (
	// ErrUnknownMetricKind is a caller error; nothing is read or written.
	ErrUnknownMetricKind = registry.ErrUnknownMetricKind

	// ErrInvalidUser rejects user ids that cannot form a path segment.
	ErrInvalidUser = errors.New("invalid user id")

	// ErrInvalidRecord rejects records with no usable timing or value.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrMissingSelector is returned when neither a date nor a record id is given.
	ErrMissingSelector = errors.New("exactly one of date or record id is required")

	// ErrAmbiguousSelector is returned when both a date and a record id are given.
	ErrAmbiguousSelector = errors.New("date and record id are mutually exclusive")

	// ErrRecordNotFound means the id could not be resolved to a sample.
	ErrRecordNotFound = errors.New("record not found")

	// ErrSampleMissing means the index resolved the id but the bucket no
	// longer holds the sample. It matches ErrRecordNotFound.
	ErrSampleMissing = fmt.Errorf("%w: sample missing from bucket", ErrRecordNotFound)

	// ErrNotAddressable is returned for id lookups on running aggregate
	// kinds, whose minted ids are never indexed. It matches ErrRecordNotFound.
	ErrNotAddressable = fmt.Errorf("%w: running aggregate records are not addressable by id", ErrRecordNotFound)

	// ErrStoreUnavailable matches any StoreError.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError is a failed read or write against the document store.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports StoreError as ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func storeErr(op, path string, err error) error {
	return &StoreError{Op: op, Path: path, Err: err}
}

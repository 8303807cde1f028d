// ABOUTME: DocumentStore interface for health metric persistence.
// ABOUTME: Defines the path-addressed document contract every backend implements.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists at a path.
var ErrNotFound = errors.New("document not found")

// Document is one stored value and the path it lives at.
type Document struct {
	Path string
	Data []byte
}

// DocumentStore is a path-addressed document store. Each call is a single
// independent request; no call is atomic with any other.
// This interface allows swapping implementations (e.g., for testing).
type DocumentStore interface {
	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Put creates or replaces the document at path.
	Put(ctx context.Context, path string, data []byte) error
	// Delete removes the document at path. Missing documents are not an error.
	Delete(ctx context.Context, path string) error
	// DeleteMany removes every listed path in one batch.
	DeleteMany(ctx context.Context, paths []string) error
	// List returns all documents whose path starts with prefix, ordered by path.
	List(ctx context.Context, prefix string) ([]Document, error)

	// Lifecycle
	Close() error
}

// ABOUTME: In-memory DocumentStore used by tests and the "memory" backend.
// ABOUTME: Copies values on the way in and out so callers never share buffers.
package storage

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps documents in a map guarded by a RWMutex.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// Compile-time check that MemoryStore implements DocumentStore.
var _ DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (m *MemoryStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = bytes.Clone(data)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	return nil
}

func (m *MemoryStore) DeleteMany(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		delete(m.docs, p)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for p, data := range m.docs {
		if strings.HasPrefix(p, prefix) {
			docs = append(docs, Document{Path: p, Data: bytes.Clone(data)})
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs, nil
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) Close() error {
	return nil
}

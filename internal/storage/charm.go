// ABOUTME: Charm KV DocumentStore with automatic E2E-encrypted cloud sync.
// ABOUTME: Wraps charmbracelet/charm/kv; writes sync to Charm Cloud when enabled.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// DefaultCharmHost is the Charm server documents sync through.
const DefaultCharmHost = "charm.2389.dev"

var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// CharmStore is a DocumentStore on a Charm KV database.
type CharmStore struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.RWMutex
}

// Compile-time check that CharmStore implements DocumentStore.
var _ DocumentStore = (*CharmStore)(nil)

// OpenCharm opens the named Charm KV database against host.
// Remote data is pulled once on open unless the database is read-only.
func OpenCharm(name, host string) (*CharmStore, error) {
	if host == "" {
		host = DefaultCharmHost
	}
	// Set server before opening KV
	if err := os.Setenv("CHARM_HOST", host); err != nil {
		return nil, err
	}

	db, err := kv.OpenWithDefaultsFallback(name)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}

	s := &CharmStore{kv: db, autoSync: true}
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return s, nil
}

// Close closes the KV database connection.
func (s *CharmStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (s *CharmStore) IsReadOnly() bool {
	return s.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (s *CharmStore) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.kv.IsReadOnly() {
		return nil
	}
	return s.kv.Sync()
}

// SetAutoSync enables or disables automatic sync after writes.
func (s *CharmStore) SetAutoSync(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSync = enabled
}

// ID returns the Charm user ID for the current account.
func (s *CharmStore) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Reset wipes local data and rebuilds from Charm Cloud.
func (s *CharmStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Reset()
}

// syncIfEnabled calls Sync if autoSync is enabled.
func (s *CharmStore) syncIfEnabled() {
	if s.autoSync && !s.kv.IsReadOnly() {
		_ = s.kv.Sync()
	}
}

func (s *CharmStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.kv.Get([]byte(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("charm get: %w", err)
	}
	return data, nil
}

func (s *CharmStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv.IsReadOnly() {
		return errReadOnly
	}
	if err := s.kv.Set([]byte(path), data); err != nil {
		return fmt.Errorf("charm set: %w", err)
	}
	s.syncIfEnabled()
	return nil
}

func (s *CharmStore) Delete(ctx context.Context, path string) error {
	return s.DeleteMany(ctx, []string{path})
}

// DeleteMany deletes every path and syncs once at the end.
func (s *CharmStore) DeleteMany(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv.IsReadOnly() {
		return errReadOnly
	}
	for _, p := range paths {
		if err := s.kv.Delete([]byte(p)); err != nil {
			return fmt.Errorf("charm delete: %w", err)
		}
	}
	s.syncIfEnabled()
	return nil
}

// List returns all values with keys matching the given prefix.
func (s *CharmStore) List(ctx context.Context, prefix string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, err := s.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("charm keys: %w", err)
	}

	prefixBytes := []byte(prefix)
	var docs []Document
	for _, key := range keys {
		if !bytes.HasPrefix(key, prefixBytes) {
			continue
		}
		val, err := s.kv.Get(key)
		if err != nil {
			return nil, fmt.Errorf("charm get: %w", err)
		}
		docs = append(docs, Document{Path: string(key), Data: val})
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs, nil
}

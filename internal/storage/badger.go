// ABOUTME: BadgerDB-backed DocumentStore (LSM tree, embedded).
// ABOUTME: Default local backend; supports an in-memory mode for tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore implements DocumentStore using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// Compile-time check that BadgerStore implements DocumentStore.
var _ DocumentStore = (*BadgerStore)(nil)

// BadgerConfig holds BadgerDB configuration.
type BadgerConfig struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool
}

// OpenBadger opens a BadgerDB store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)

	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(cfg.Path, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return data, nil
}

func (s *BadgerStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), data)
	})
	if err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(path))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// DeleteMany removes paths with a single write batch.
func (s *BadgerStore) DeleteMany(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, p := range paths {
		if err := wb.Delete([]byte(p)); err != nil {
			return fmt.Errorf("badger batch delete: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("badger batch flush: %w", err)
	}
	return nil
}

func (s *BadgerStore) List(ctx context.Context, prefix string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			docs = append(docs, Document{Path: string(item.KeyCopy(nil)), Data: val})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list: %w", err)
	}
	return docs, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// ABOUTME: Document CRUD operations for SQL storage.
// ABOUTME: Implements DocumentStore methods with upserts and LIKE prefix scans.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Get retrieves the document stored at path.
func (s *SQLStore) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.dialect.getQuery, path).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return data, nil
}

// Put creates or replaces the document at path.
func (s *SQLStore) Put(ctx context.Context, path string, data []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsertQuery,
		path,
		data,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Delete removes the document at path.
func (s *SQLStore) Delete(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.deleteQuery, path); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// DeleteMany removes all paths inside one transaction.
func (s *SQLStore) DeleteMany(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete batch: %w", err)
	}
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, s.dialect.deleteQuery, p); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete document %s: %w", p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete batch: %w", err)
	}
	return nil
}

// List returns documents under prefix ordered by path.
func (s *SQLStore) List(ctx context.Context, prefix string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.listQuery, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Path, &d.Data); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// escapeLike escapes LIKE wildcards so prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

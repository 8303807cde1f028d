// ABOUTME: Data migration between health storage backends.
// ABOUTME: Copies day buckets, index entries, and any other documents from source to destination.

package storage

import (
	"context"
	"fmt"
)

// MigrateSummary holds counts of migrated documents.
type MigrateSummary struct {
	Buckets      int
	IndexEntries int
	Other        int
}

// Total returns the number of documents copied.
func (s *MigrateSummary) Total() int {
	return s.Buckets + s.IndexEntries + s.Other
}

// Migrate copies every document under prefix from src to dst.
// Existing documents at the same path in dst are overwritten. Buckets are
// copied before index entries so a partially migrated destination never
// holds an index entry whose bucket is missing.
func Migrate(ctx context.Context, src, dst DocumentStore, prefix string) (*MigrateSummary, error) {
	docs, err := src.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list source documents: %w", err)
	}

	summary := &MigrateSummary{}
	var index []Document
	for _, d := range docs {
		if IsIndexPath(d.Path) {
			index = append(index, d)
			continue
		}
		if err := dst.Put(ctx, d.Path, d.Data); err != nil {
			return summary, fmt.Errorf("copy %s: %w", d.Path, err)
		}
		if IsBucketPath(d.Path) {
			summary.Buckets++
		} else {
			summary.Other++
		}
	}

	for _, d := range index {
		if err := dst.Put(ctx, d.Path, d.Data); err != nil {
			return summary, fmt.Errorf("copy %s: %w", d.Path, err)
		}
		summary.IndexEntries++
	}

	return summary, nil
}

// ABOUTME: Daily snapshot: every requested kind's bucket for one day.
// ABOUTME: Fetches kinds concurrently with a bounded errgroup.
package engine

import (
	"context"
	"time"

	"github.com/harperreed/healthstore/internal/models"
	"github.com/harperreed/healthstore/internal/registry"
	"golang.org/x/sync/errgroup"
)

const snapshotConcurrency = 4

// Snapshot returns the views of kinds (all registered kinds when empty) for
// the UTC day containing date, in the order requested.
func (e *Engine) Snapshot(ctx context.Context, userID string, date time.Time, kinds ...models.MetricKind) (*models.DaySnapshot, error) {
	if len(kinds) == 0 {
		kinds = registry.Kinds()
	}
	for _, kind := range kinds {
		if _, err := e.resolve(userID, kind); err != nil {
			return nil, err
		}
	}

	views := make([]*models.BucketView, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)
	for i, kind := range kinds {
		g.Go(func() error {
			v, err := e.GetByDate(gctx, userID, kind, date)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.DaySnapshot{
		UserID: userID,
		Date:   models.DateKey(date),
		Views:  views,
	}, nil
}

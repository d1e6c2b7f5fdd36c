package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Prune deletes every object under prefix last modified before cutoff and
// returns how many were removed. A failed delete is logged and skipped.
func Prune(ctx context.Context, store StorageInterface, prefix string, cutoff time.Time) (int, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list archive for pruning: %w", err)
	}

	removed := 0
	for _, object := range objects {
		if object.LastModified.IsZero() || !object.LastModified.Before(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := store.Delete(ctx, object.Name); err != nil {
			logrus.Errorf("Failed to prune %s: %v", object.Name, err)
			continue
		}
		removed++
	}

	logrus.Infof("Pruned %d archived runs older than %s", removed, cutoff.Format(time.RFC3339))
	return removed, nil
}

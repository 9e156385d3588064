package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jkihlstad/weapons-admin-hooks/internal/store"
)

// StartRetentionWorker launches a background sweeper that purges delivery
// records older than the retention window. Runs once at startup and then on
// the given interval until the context is cancelled.
func StartRetentionWorker(ctx context.Context, deliveries store.DeliveryStore, retentionHours, intervalHours int) {
	log := logrus.WithField("component", "retention")

	purge := func() {
		cutoff := time.Now().Add(-time.Duration(retentionHours) * time.Hour)
		deleted, err := deliveries.PurgeDeliveriesBefore(ctx, cutoff)
		if err != nil {
			log.WithError(err).Error("failed to purge old deliveries")
			return
		}
		if deleted > 0 {
			log.WithField("deleted", deleted).Info("purged old delivery records")
		}
	}

	go func() {
		ticker := time.NewTicker(time.Duration(intervalHours) * time.Hour)
		defer ticker.Stop()

		purge()
		for {
			select {
			case <-ticker.C:
				purge()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.WithFields(logrus.Fields{
		"retention_hours": retentionHours,
		"interval_hours":  intervalHours,
	}).Info("delivery retention worker started")
}

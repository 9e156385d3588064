package stats

import (
	"context"

	"github.com/google/uuid"

	"github.com/jkihlstad/weapons-admin-hooks/internal/store"
	"github.com/jkihlstad/weapons-admin-hooks/types"
)

// Aggregator computes read-side rollups over delivery history. It never
// mutates anything.
type Aggregator struct {
	configs    store.ConfigStore
	deliveries store.DeliveryStore
}

// New builds an Aggregator over the given stores.
func New(configs store.ConfigStore, deliveries store.DeliveryStore) *Aggregator {
	return &Aggregator{configs: configs, deliveries: deliveries}
}

// Statistics returns the rollup for one configuration. An existing
// configuration with no deliveries yet yields zeroed statistics, not an error.
func (a *Aggregator) Statistics(ctx context.Context, webhookID uuid.UUID) (*types.WebhookStatistics, error) {
	if _, err := a.configs.GetConfiguration(ctx, webhookID); err != nil {
		return nil, err
	}

	total, successful, avgDuration, err := a.deliveries.DeliveryStats(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	stats := &types.WebhookStatistics{
		TotalDeliveries:      total,
		SuccessfulDeliveries: successful,
		FailedDeliveries:     total - successful,
		AverageDuration:      avgDuration,
	}
	if total > 0 {
		stats.SuccessRate = float64(successful) / float64(total)
	}

	recent, err := a.deliveries.ListDeliveries(ctx, webhookID, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		stats.LastDelivery = &recent[0]
	}
	return stats, nil
}

// History returns deliveries for one configuration, newest first. limit <= 0
// falls back to the store default.
func (a *Aggregator) History(ctx context.Context, webhookID uuid.UUID, limit int) ([]types.WebhookDelivery, error) {
	if _, err := a.configs.GetConfiguration(ctx, webhookID); err != nil {
		return nil, err
	}
	return a.deliveries.ListDeliveries(ctx, webhookID, limit)
}

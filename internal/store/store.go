package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

// ConfigStore is the persistence boundary for webhook configurations. The
// registry is the only writer.
type ConfigStore interface {
	CreateConfiguration(ctx context.Context, cfg *types.WebhookConfiguration) error
	GetConfiguration(ctx context.Context, id uuid.UUID) (*types.WebhookConfiguration, error)
	ListConfigurations(ctx context.Context) ([]types.WebhookConfiguration, error)
	ListActiveByEvent(ctx context.Context, event types.WebhookEvent) ([]types.WebhookConfiguration, error)
	UpdateConfiguration(ctx context.Context, cfg *types.WebhookConfiguration) error
	DeleteConfiguration(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateSecret(ctx context.Context, id uuid.UUID, secret string) error

	// RecordOutcome applies one delivery sequence result atomically: success
	// resets the failure counter, failure increments it, and the derived
	// status is recomputed in the same statement. Recording against a deleted
	// configuration is a no-op.
	RecordOutcome(ctx context.Context, id uuid.UUID, success bool, failingThreshold int, triggeredAt time.Time) error
}

// DeliveryStore is the append-only persistence boundary for delivery history.
// The dispatcher is the only writer.
type DeliveryStore interface {
	CreateDelivery(ctx context.Context, d *types.WebhookDelivery) error
	ListDeliveries(ctx context.Context, webhookID uuid.UUID, limit int) ([]types.WebhookDelivery, error)
	DeliveryStats(ctx context.Context, webhookID uuid.UUID) (total, successful int64, avgDuration float64, err error)
	PurgeDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

type fakeConfigs struct {
	known map[uuid.UUID]bool
}

func (f *fakeConfigs) GetConfiguration(_ context.Context, id uuid.UUID) (*types.WebhookConfiguration, error) {
	if !f.known[id] {
		return nil, types.ErrNotFound
	}
	return &types.WebhookConfiguration{ID: id}, nil
}

func (f *fakeConfigs) CreateConfiguration(context.Context, *types.WebhookConfiguration) error {
	return nil
}
func (f *fakeConfigs) ListConfigurations(context.Context) ([]types.WebhookConfiguration, error) {
	return nil, nil
}
func (f *fakeConfigs) ListActiveByEvent(context.Context, types.WebhookEvent) ([]types.WebhookConfiguration, error) {
	return nil, nil
}
func (f *fakeConfigs) UpdateConfiguration(context.Context, *types.WebhookConfiguration) error {
	return nil
}
func (f *fakeConfigs) DeleteConfiguration(context.Context, uuid.UUID) error { return nil }
func (f *fakeConfigs) SetActive(context.Context, uuid.UUID, bool) error     { return nil }
func (f *fakeConfigs) UpdateSecret(context.Context, uuid.UUID, string) error {
	return nil
}
func (f *fakeConfigs) RecordOutcome(context.Context, uuid.UUID, bool, int, time.Time) error {
	return nil
}

type fakeDeliveries struct {
	total       int64
	successful  int64
	avgDuration float64
	recent      []types.WebhookDelivery
}

func (f *fakeDeliveries) CreateDelivery(context.Context, *types.WebhookDelivery) error { return nil }

func (f *fakeDeliveries) ListDeliveries(_ context.Context, _ uuid.UUID, limit int) ([]types.WebhookDelivery, error) {
	if limit > 0 && limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeDeliveries) DeliveryStats(context.Context, uuid.UUID) (int64, int64, float64, error) {
	return f.total, f.successful, f.avgDuration, nil
}

func (f *fakeDeliveries) PurgeDeliveriesBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestStatisticsZeroDeliveries(t *testing.T) {
	id := uuid.New()
	agg := New(&fakeConfigs{known: map[uuid.UUID]bool{id: true}}, &fakeDeliveries{})

	stats, err := agg.Statistics(context.Background(), id)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalDeliveries)
	assert.Zero(t, stats.SuccessfulDeliveries)
	assert.Zero(t, stats.FailedDeliveries)
	assert.Zero(t, stats.SuccessRate, "success rate must be 0 with no deliveries, not NaN")
	assert.Nil(t, stats.LastDelivery)
}

func TestStatisticsTotalsAddUp(t *testing.T) {
	id := uuid.New()
	last := types.WebhookDelivery{ID: uuid.New(), WebhookID: id, Success: true, Timestamp: time.Now()}
	agg := New(
		&fakeConfigs{known: map[uuid.UUID]bool{id: true}},
		&fakeDeliveries{total: 3, successful: 2, avgDuration: 0.42, recent: []types.WebhookDelivery{last}},
	)

	stats, err := agg.Statistics(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalDeliveries)
	assert.Equal(t, int64(2), stats.SuccessfulDeliveries)
	assert.Equal(t, int64(1), stats.FailedDeliveries)
	assert.Equal(t, stats.TotalDeliveries, stats.SuccessfulDeliveries+stats.FailedDeliveries)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.InDelta(t, 0.42, stats.AverageDuration, 1e-9)
	require.NotNil(t, stats.LastDelivery)
	assert.Equal(t, last.ID, stats.LastDelivery.ID)
}

func TestStatisticsUnknownWebhook(t *testing.T) {
	agg := New(&fakeConfigs{known: map[uuid.UUID]bool{}}, &fakeDeliveries{})

	_, err := agg.Statistics(context.Background(), uuid.New())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHistoryUnknownWebhook(t *testing.T) {
	agg := New(&fakeConfigs{known: map[uuid.UUID]bool{}}, &fakeDeliveries{})

	_, err := agg.History(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHistoryAppliesLimit(t *testing.T) {
	id := uuid.New()
	recent := []types.WebhookDelivery{
		{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()},
	}
	agg := New(&fakeConfigs{known: map[uuid.UUID]bool{id: true}}, &fakeDeliveries{recent: recent})

	got, err := agg.History(context.Background(), id, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

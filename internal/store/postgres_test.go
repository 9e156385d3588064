package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

var configMockColumns = []string{
	"id", "name", "url", "events", "secret", "active", "retry_enabled",
	"max_retries", "failure_count", "status", "last_triggered_at", "created_at",
}

func TestGetConfiguration(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	created := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM webhook_configurations WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(configMockColumns).AddRow(
			id, "orders hook", "https://example.com/hooks", "{order.created,order.paid}",
			"whsec_secret", true, true, 3, 0, "healthy", nil, created,
		))

	cfg, err := s.GetConfiguration(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, cfg.ID)
	assert.Equal(t, []types.WebhookEvent{types.EventOrderCreated, types.EventOrderPaid}, cfg.Events)
	assert.Equal(t, types.StatusHealthy, cfg.Status)
	assert.Nil(t, cfg.LastTriggeredAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConfigurationNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM webhook_configurations WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(configMockColumns))

	_, err := s.GetConfiguration(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteConfigurationNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM webhook_configurations WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteConfiguration(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteConfigurationKeepsDeliveries(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	// One statement, configurations table only: history rows stay behind.
	mock.ExpectExec(`DELETE FROM webhook_configurations WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.DeleteConfiguration(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcomeMissingRowIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE webhook_configurations`).
		WithArgs(id, false, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.RecordOutcome(context.Background(), id, false, 3, time.Now())
	assert.NoError(t, err, "outcome for a deleted configuration must not error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcomeDefaultsThreshold(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE webhook_configurations`).
		WithArgs(id, true, sqlmock.AnyArg(), types.DefaultFailingThreshold).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.RecordOutcome(context.Background(), id, true, 0, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE webhook_configurations`).
		WithArgs(id, false, types.DefaultFailingThreshold).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.SetActive(context.Background(), id, false), types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStats(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count", "successful", "avg"}).AddRow(10, 7, 0.314))

	total, successful, avg, err := s.DeliveryStats(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(7), successful)
	assert.InDelta(t, 0.314, avg, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeDeliveriesBefore(t *testing.T) {
	s, mock := newMockStore(t)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectExec(`DELETE FROM webhook_deliveries WHERE timestamp < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	deleted, err := s.PurgeDeliveriesBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDeliveriesDefaultsLimit(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	deliveryColumns := []string{
		"id", "webhook_id", "event", "payload", "success", "status_code",
		"duration", "retry_count", "error_message", "response", "timestamp",
	}
	mock.ExpectQuery(`SELECT .+ FROM webhook_deliveries`).
		WithArgs(id, 50).
		WillReturnRows(sqlmock.NewRows(deliveryColumns).AddRow(
			uuid.New(), id, "order.created", []byte(`{"event":"order.created"}`),
			true, 200, 0.12, 0, nil, nil, time.Now(),
		))

	deliveries, err := s.ListDeliveries(context.Background(), id, 0)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, types.EventOrderCreated, deliveries[0].Event)
	assert.True(t, deliveries[0].Success)
	require.NotNil(t, deliveries[0].StatusCode)
	assert.Equal(t, 200, *deliveries[0].StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

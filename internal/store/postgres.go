package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

// Store is the postgres implementation of ConfigStore and DeliveryStore.
type Store struct {
	db *sql.DB
}

// Connect opens the postgres connection and verifies it with a ping.
func Connect(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, mainly for tests.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const configColumns = `id, name, url, events, secret, active, retry_enabled, max_retries, failure_count, status, last_triggered_at, created_at`

func (s *Store) CreateConfiguration(ctx context.Context, cfg *types.WebhookConfiguration) error {
	query := `INSERT INTO webhook_configurations
		(id, name, url, events, secret, active, retry_enabled, max_retries, failure_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		cfg.ID, cfg.Name, cfg.URL, pq.Array(eventKeys(cfg.Events)), cfg.Secret,
		cfg.Active, cfg.RetryEnabled, cfg.MaxRetries, cfg.FailureCount, cfg.Status, cfg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook configuration: %w", err)
	}
	return nil
}

func (s *Store) GetConfiguration(ctx context.Context, id uuid.UUID) (*types.WebhookConfiguration, error) {
	query := `SELECT ` + configColumns + ` FROM webhook_configurations WHERE id = $1`
	cfg, err := scanConfiguration(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook configuration: %w", err)
	}
	return cfg, nil
}

func (s *Store) ListConfigurations(ctx context.Context) ([]types.WebhookConfiguration, error) {
	query := `SELECT ` + configColumns + ` FROM webhook_configurations ORDER BY created_at DESC`
	return s.queryConfigurations(ctx, query)
}

func (s *Store) ListActiveByEvent(ctx context.Context, event types.WebhookEvent) ([]types.WebhookConfiguration, error) {
	query := `SELECT ` + configColumns + ` FROM webhook_configurations WHERE active = true AND $1 = ANY(events)`
	return s.queryConfigurations(ctx, query, string(event))
}

func (s *Store) queryConfigurations(ctx context.Context, query string, args ...any) ([]types.WebhookConfiguration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook configurations: %w", err)
	}
	defer rows.Close()

	var configs []types.WebhookConfiguration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning webhook configuration row: %w", err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook configuration rows: %w", err)
	}
	return configs, nil
}

// UpdateConfiguration replaces all mutable fields. The secret is written too;
// callers preserve the old one unless rotation was requested.
func (s *Store) UpdateConfiguration(ctx context.Context, cfg *types.WebhookConfiguration) error {
	query := `UPDATE webhook_configurations
		SET name = $2, url = $3, events = $4, active = $5, retry_enabled = $6,
		    max_retries = $7, failure_count = $8, status = $9
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		cfg.ID, cfg.Name, cfg.URL, pq.Array(eventKeys(cfg.Events)),
		cfg.Active, cfg.RetryEnabled, cfg.MaxRetries, cfg.FailureCount, cfg.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook configuration: %w", err)
	}
	return requireRow(result)
}

// DeleteConfiguration removes the configuration only. Delivery history is
// retained for audit.
func (s *Store) DeleteConfiguration(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM webhook_configurations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook configuration: %w", err)
	}
	return requireRow(result)
}

func (s *Store) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE webhook_configurations
		SET active = $2,
		    status = CASE
		        WHEN NOT $2 THEN 'disabled'
		        WHEN failure_count >= $3 THEN 'failing'
		        WHEN failure_count >= 1 THEN 'warning'
		        ELSE 'healthy'
		    END
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id, active, types.DefaultFailingThreshold)
	if err != nil {
		return fmt.Errorf("failed to toggle webhook configuration: %w", err)
	}
	return requireRow(result)
}

func (s *Store) UpdateSecret(ctx context.Context, id uuid.UUID, secret string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE webhook_configurations SET secret = $2 WHERE id = $1`, id, secret)
	if err != nil {
		return fmt.Errorf("failed to update webhook secret: %w", err)
	}
	return requireRow(result)
}

// RecordOutcome is a single read-modify-write statement so concurrent delivery
// sequences for the same configuration cannot lose counter updates. Zero rows
// affected means the configuration was deleted mid-flight, which is fine.
func (s *Store) RecordOutcome(ctx context.Context, id uuid.UUID, success bool, failingThreshold int, triggeredAt time.Time) error {
	if failingThreshold <= 0 {
		failingThreshold = types.DefaultFailingThreshold
	}

	query := `UPDATE webhook_configurations
		SET failure_count = CASE WHEN $2 THEN 0 ELSE failure_count + 1 END,
		    last_triggered_at = $3,
		    status = CASE
		        WHEN NOT active THEN 'disabled'
		        WHEN $2 THEN 'healthy'
		        WHEN failure_count + 1 >= $4 THEN 'failing'
		        ELSE 'warning'
		    END
		WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id, success, triggeredAt, failingThreshold)
	if err != nil {
		return fmt.Errorf("failed to record delivery outcome: %w", err)
	}
	return nil
}

func (s *Store) CreateDelivery(ctx context.Context, d *types.WebhookDelivery) error {
	query := `INSERT INTO webhook_deliveries
		(id, webhook_id, event, payload, success, status_code, duration, retry_count, error_message, response, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.WebhookID, string(d.Event), []byte(d.Payload), d.Success,
		d.StatusCode, d.Duration, d.RetryCount, d.ErrorMessage, d.Response, d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook delivery: %w", err)
	}
	return nil
}

func (s *Store) ListDeliveries(ctx context.Context, webhookID uuid.UUID, limit int) ([]types.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, webhook_id, event, payload, success, status_code, duration, retry_count, error_message, response, timestamp
		FROM webhook_deliveries
		WHERE webhook_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, webhookID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []types.WebhookDelivery
	for rows.Next() {
		var d types.WebhookDelivery
		var event string
		var payload []byte
		if err := rows.Scan(&d.ID, &d.WebhookID, &event, &payload, &d.Success,
			&d.StatusCode, &d.Duration, &d.RetryCount, &d.ErrorMessage, &d.Response, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning webhook delivery row: %w", err)
		}
		d.Event = types.WebhookEvent(event)
		d.Payload = payload
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook delivery rows: %w", err)
	}
	return deliveries, nil
}

func (s *Store) DeliveryStats(ctx context.Context, webhookID uuid.UUID) (total, successful int64, avgDuration float64, err error) {
	query := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE success),
		COALESCE(AVG(duration) FILTER (WHERE duration > 0), 0)
		FROM webhook_deliveries WHERE webhook_id = $1`

	row := s.db.QueryRowContext(ctx, query, webhookID)
	if err := row.Scan(&total, &successful, &avgDuration); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to compute delivery stats: %w", err)
	}
	return total, successful, avgDuration, nil
}

// PurgeDeliveriesBefore removes delivery records older than the cutoff and
// returns how many were deleted.
func (s *Store) PurgeDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM webhook_deliveries WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge old deliveries: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfiguration(row rowScanner) (*types.WebhookConfiguration, error) {
	var cfg types.WebhookConfiguration
	var events pq.StringArray
	var status string
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.URL, &events, &cfg.Secret,
		&cfg.Active, &cfg.RetryEnabled, &cfg.MaxRetries, &cfg.FailureCount,
		&status, &cfg.LastTriggeredAt, &cfg.CreatedAt); err != nil {
		return nil, err
	}
	cfg.Status = types.WebhookStatus(status)
	cfg.Events = toEvents(events)
	return &cfg, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return types.ErrNotFound
	}
	return nil
}

func eventKeys(events []types.WebhookEvent) []string {
	keys := make([]string, len(events))
	for i, e := range events {
		keys[i] = string(e)
	}
	return keys
}

func toEvents(keys []string) []types.WebhookEvent {
	events := make([]types.WebhookEvent, len(keys))
	for i, k := range keys {
		events[i] = types.WebhookEvent(k)
	}
	return events
}

package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookStatus is the derived health label shown in the admin configuration list.
type WebhookStatus string

const (
	StatusHealthy  WebhookStatus = "healthy"
	StatusWarning  WebhookStatus = "warning"
	StatusFailing  WebhookStatus = "failing"
	StatusDisabled WebhookStatus = "disabled"
)

// DefaultFailingThreshold is the number of consecutive failed delivery
// sequences after which a configuration is marked failing.
const DefaultFailingThreshold = 3

// DeriveStatus computes the health status from the active flag and the
// consecutive failure count. Disabled always wins over the counters.
func DeriveStatus(active bool, failureCount, failingThreshold int) WebhookStatus {
	if !active {
		return StatusDisabled
	}
	if failingThreshold <= 0 {
		failingThreshold = DefaultFailingThreshold
	}
	switch {
	case failureCount >= failingThreshold:
		return StatusFailing
	case failureCount >= 1:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// WebhookConfiguration represents a registered webhook subscriber.
type WebhookConfiguration struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Name            string         `json:"name" db:"name"`
	URL             string         `json:"url" db:"url"`
	Events          []WebhookEvent `json:"events" db:"events"`
	Active          bool           `json:"active" db:"active"`
	Secret          string         `json:"secret,omitempty" db:"secret"`
	RetryEnabled    bool           `json:"retry_enabled" db:"retry_enabled"`
	MaxRetries      int            `json:"max_retries" db:"max_retries"`
	FailureCount    int            `json:"failure_count" db:"failure_count"`
	Status          WebhookStatus  `json:"status" db:"status"`
	LastTriggeredAt *time.Time     `json:"last_triggered_at,omitempty" db:"last_triggered_at"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// MaskedSecret returns the secret with everything between the prefix and the
// last four characters redacted.
func (c WebhookConfiguration) MaskedSecret() string {
	const head, tail = 8, 4
	if len(c.Secret) <= head+tail {
		return "********"
	}
	return c.Secret[:head] + "..." + c.Secret[len(c.Secret)-tail:]
}

// Subscribed reports whether the configuration listens for the given event.
func (c WebhookConfiguration) Subscribed(event WebhookEvent) bool {
	for _, e := range c.Events {
		if e == event {
			return true
		}
	}
	return false
}

// WebhookDelivery is one recorded notification outcome, inclusive of retries.
// Records are append-only and never mutated after the sequence concludes.
type WebhookDelivery struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	WebhookID    uuid.UUID       `json:"webhook_id" db:"webhook_id"`
	Event        WebhookEvent    `json:"event" db:"event"`
	Payload      json.RawMessage `json:"payload,omitempty" db:"payload"`
	Success      bool            `json:"success" db:"success"`
	StatusCode   *int            `json:"status_code,omitempty" db:"status_code"`
	Duration     float64         `json:"duration" db:"duration"`
	RetryCount   int             `json:"retry_count" db:"retry_count"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	Response     *string         `json:"response,omitempty" db:"response"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// WebhookTestResult is the outcome of a manual test delivery. It is returned
// directly to the caller and never persisted.
type WebhookTestResult struct {
	Success      bool    `json:"success"`
	StatusCode   *int    `json:"status_code,omitempty"`
	Duration     float64 `json:"duration"`
	ErrorMessage *string `json:"error_message,omitempty"`
	Response     *string `json:"response,omitempty"`
}

// WebhookStatistics is a computed rollup over a configuration's delivery history.
type WebhookStatistics struct {
	TotalDeliveries      int64            `json:"total_deliveries"`
	SuccessfulDeliveries int64            `json:"successful_deliveries"`
	FailedDeliveries     int64            `json:"failed_deliveries"`
	SuccessRate          float64          `json:"success_rate"`
	AverageDuration      float64          `json:"average_duration"`
	LastDelivery         *WebhookDelivery `json:"last_delivery,omitempty"`
}

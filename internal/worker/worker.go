package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jkihlstad/weapons-admin-hooks/internal/signature"
	"github.com/jkihlstad/weapons-admin-hooks/internal/store"
	"github.com/jkihlstad/weapons-admin-hooks/types"
)

const (
	// HeaderSignature carries the hex HMAC-SHA256 of "<timestamp>.<body>".
	HeaderSignature = "X-Webhook-Signature"
	HeaderDelivery  = "X-Webhook-Delivery"
	HeaderEvent     = "X-Webhook-Event"
	HeaderTimestamp = "X-Webhook-Timestamp"

	maxResponseBytes = 2048
)

// Registry is the slice of registry behavior the dispatcher needs: resolving
// subscribers for an event and reporting concluded sequences back.
type Registry interface {
	ActiveSubscribers(ctx context.Context, event types.WebhookEvent) ([]types.WebhookConfiguration, error)
	RecordOutcome(ctx context.Context, id uuid.UUID, success bool) error
}

// Config tunes the dispatcher.
type Config struct {
	Workers        int
	QueueSize      int
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

// job is one delivery sequence: one event occurrence for one subscriber. The
// configuration (secret included) is snapshotted at dispatch time, so a
// concurrent secret rotation cannot produce a partially signed sequence.
type job struct {
	deliveryID uuid.UUID
	config     types.WebhookConfiguration
	event      types.WebhookEvent
	payload    json.RawMessage
}

// outcome is the result of a single HTTP attempt.
type outcome struct {
	success    bool
	retryable  bool
	statusCode *int
	response   *string
	errMsg     *string
	duration   float64
}

// Dispatcher turns raised business events into signed, retried, recorded
// webhook deliveries. Fan-out across subscribers is concurrent; retries
// within one sequence are strictly sequential.
type Dispatcher struct {
	registry   Registry
	deliveries store.DeliveryStore
	client     *http.Client
	backoff    *Backoff
	queue      chan job
	quit       chan struct{}
	wg         sync.WaitGroup
	seqWg      sync.WaitGroup
	stopOnce   sync.Once
	log        *logrus.Entry
}

// New builds a Dispatcher. Call Start before dispatching.
func New(reg Registry, deliveries store.DeliveryStore, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}

	d := &Dispatcher{
		registry:   reg,
		deliveries: deliveries,
		client:     &http.Client{Timeout: cfg.AttemptTimeout},
		backoff:    NewBackoff(cfg.BackoffBase, cfg.BackoffMax),
		queue:      make(chan job, cfg.QueueSize),
		quit:       make(chan struct{}),
		log:        logrus.WithField("component", "dispatcher"),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i + 1)
	}
	d.log.WithField("workers", cfg.Workers).Info("webhook delivery workers started")
	return d
}

// Dispatch resolves the active subscribers for event and queues one delivery
// sequence per subscriber. It returns as soon as the sequences are handed off;
// the producer never waits on subscriber endpoints.
func (d *Dispatcher) Dispatch(ctx context.Context, event types.WebhookEvent, payload json.RawMessage) (int, error) {
	if !types.KnownEvent(event) {
		return 0, &types.ValidationError{Violations: []string{fmt.Sprintf("unknown event %q", event)}}
	}

	subscribers, err := d.registry.ActiveSubscribers(ctx, event)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve subscribers for %s: %w", event, err)
	}

	queued := 0
	for _, cfg := range subscribers {
		j := job{
			deliveryID: uuid.New(),
			config:     cfg,
			event:      event,
			payload:    payload,
		}

		select {
		case <-d.quit:
			return queued, nil
		case d.queue <- j:
		default:
			// Queue full. Run the sequence on its own goroutine rather than
			// blocking the producer or dropping the notification.
			d.seqWg.Add(1)
			go func(j job) {
				defer d.seqWg.Done()
				d.deliver(j)
			}(j)
		}
		queued++
	}
	return queued, nil
}

// Stop drains the queue and waits for in-flight sequences to reach a terminal
// state. Pending backoff sleeps are cut short; the sequence records whatever
// it has observed so far.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.quit)
		close(d.queue)
	})
	d.wg.Wait()
	d.seqWg.Wait()
	d.log.Info("all webhook delivery workers stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	d.log.WithField("worker", id).Debug("worker started")
	for j := range d.queue {
		d.deliver(j)
	}
}

// deliver runs one full delivery sequence to a terminal state, persists the
// summarizing delivery record, and reports the outcome to the registry.
func (d *Dispatcher) deliver(j job) {
	ctx := context.Background()
	log := d.log.WithFields(logrus.Fields{
		"webhook_id":  j.config.ID,
		"delivery_id": j.deliveryID,
		"event":       j.event,
	})

	maxAttempts := 1
	if j.config.RetryEnabled {
		maxAttempts = j.config.MaxRetries + 1
	}

	var last outcome
	attempts := 0
sequence:
	for {
		attempts++
		last = d.attempt(ctx, j)
		if last.success {
			log.WithField("attempts", attempts).Info("webhook delivered")
			break
		}
		if !last.retryable {
			log.Warn("webhook delivery failed with non-retryable error")
			break
		}
		if attempts >= maxAttempts {
			log.WithField("attempts", attempts).Warn("webhook delivery exhausted retries")
			break
		}

		select {
		case <-time.After(d.backoff.Delay(attempts)):
		case <-d.quit:
			log.Warn("shutdown during backoff, recording sequence as failed")
			break sequence
		}
	}

	delivery := &types.WebhookDelivery{
		ID:           j.deliveryID,
		WebhookID:    j.config.ID,
		Event:        j.event,
		Payload:      j.payload,
		Success:      last.success,
		StatusCode:   last.statusCode,
		Duration:     last.duration,
		RetryCount:   attempts - 1,
		ErrorMessage: last.errMsg,
		Response:     last.response,
		Timestamp:    time.Now().UTC(),
	}
	if err := d.deliveries.CreateDelivery(ctx, delivery); err != nil {
		log.WithError(err).Error("failed to persist delivery record")
	}
	if err := d.registry.RecordOutcome(ctx, j.config.ID, last.success); err != nil {
		log.WithError(err).Error("failed to record delivery outcome")
	}
}

// attempt performs exactly one signed POST to the subscriber endpoint.
func (d *Dispatcher) attempt(ctx context.Context, j job) outcome {
	start := time.Now()
	now := start.UTC()

	body, err := json.Marshal(map[string]any{
		"event":       j.event,
		"timestamp":   now.Format(time.RFC3339),
		"delivery_id": j.deliveryID,
		"data":        j.payload,
	})
	if err != nil {
		return failure(nil, fmt.Sprintf("failed to encode payload: %v", err), false, start)
	}

	sig, err := signature.Sign(body, j.config.Secret, now)
	if err != nil {
		// A broken secret cannot heal on retry.
		if errors.Is(err, types.ErrSigning) {
			return failure(nil, err.Error(), false, start)
		}
		return failure(nil, fmt.Sprintf("failed to sign payload: %v", err), false, start)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.config.URL, bytes.NewReader(body))
	if err != nil {
		return failure(nil, fmt.Sprintf("failed to build request: %v", err), false, start)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, sig)
	req.Header.Set(HeaderDelivery, j.deliveryID.String())
	req.Header.Set(HeaderEvent, string(j.event))
	req.Header.Set(HeaderTimestamp, fmt.Sprintf("%d", now.Unix()))

	resp, err := d.client.Do(req)
	if err != nil {
		return failure(nil, fmt.Sprintf("request failed: %v", err), true, start)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	truncated := string(respBody)
	statusCode := resp.StatusCode

	if statusCode >= 200 && statusCode < 300 {
		return outcome{
			success:    true,
			statusCode: &statusCode,
			response:   &truncated,
			duration:   time.Since(start).Seconds(),
		}
	}

	msg := fmt.Sprintf("endpoint returned status %d", statusCode)
	return outcome{
		retryable:  true,
		statusCode: &statusCode,
		response:   &truncated,
		errMsg:     &msg,
		duration:   time.Since(start).Seconds(),
	}
}

// Test runs the identical single-attempt signing and send logic against the
// given configuration, but never retries, never persists a delivery, and
// never touches the configuration's counters.
func (d *Dispatcher) Test(ctx context.Context, cfg types.WebhookConfiguration) *types.WebhookTestResult {
	event := types.EventSystemAlert
	if len(cfg.Events) > 0 {
		event = cfg.Events[0]
	}

	payload, _ := json.Marshal(map[string]string{"test": "true"})
	result := d.attempt(ctx, job{
		deliveryID: uuid.New(),
		config:     cfg,
		event:      event,
		payload:    payload,
	})

	return &types.WebhookTestResult{
		Success:      result.success,
		StatusCode:   result.statusCode,
		Duration:     result.duration,
		ErrorMessage: result.errMsg,
		Response:     result.response,
	}
}

func failure(statusCode *int, msg string, retryable bool, start time.Time) outcome {
	return outcome{
		retryable:  retryable,
		statusCode: statusCode,
		errMsg:     &msg,
		duration:   time.Since(start).Seconds(),
	}
}

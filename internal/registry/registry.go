package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jkihlstad/weapons-admin-hooks/internal/cache"
	"github.com/jkihlstad/weapons-admin-hooks/internal/signature"
	"github.com/jkihlstad/weapons-admin-hooks/internal/store"
	"github.com/jkihlstad/weapons-admin-hooks/internal/validate"
	"github.com/jkihlstad/weapons-admin-hooks/types"
)

const (
	minRetries = 1
	maxRetries = 5
)

// Registry is the source of truth for webhook configurations and their
// derived health status. All configuration mutation goes through it.
type Registry struct {
	store            store.ConfigStore
	redis            *redis.Client
	validator        *validate.Validator
	failingThreshold int
	log              *logrus.Entry
}

// New builds a Registry. The redis client may be nil, in which case caching is
// skipped entirely.
func New(store store.ConfigStore, redisClient *redis.Client, validator *validate.Validator, failingThreshold int) *Registry {
	if failingThreshold <= 0 {
		failingThreshold = types.DefaultFailingThreshold
	}
	return &Registry{
		store:            store,
		redis:            redisClient,
		validator:        validator,
		failingThreshold: failingThreshold,
		log:              logrus.WithField("component", "registry"),
	}
}

// Create validates and persists a new configuration. A fresh signing secret is
// generated; the returned configuration is the caller's one chance to see it
// in full.
func (r *Registry) Create(ctx context.Context, cfg *types.WebhookConfiguration) (*types.WebhookConfiguration, error) {
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}

	secret, err := signature.GenerateSecret()
	if err != nil {
		return nil, err
	}

	cfg.ID = uuid.New()
	cfg.Secret = secret
	cfg.FailureCount = 0
	cfg.Status = types.DeriveStatus(cfg.Active, 0, r.failingThreshold)
	cfg.CreatedAt = time.Now().UTC()
	cfg.LastTriggeredAt = nil

	if err := r.store.CreateConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	r.cacheSet(ctx, *cfg)
	r.invalidateSubscribers(ctx)

	r.log.WithFields(logrus.Fields{"webhook_id": cfg.ID, "events": len(cfg.Events)}).Info("webhook configuration created")
	return cfg, nil
}

// Update applies full-replace semantics on the mutable fields. The secret and
// created timestamp are preserved, and the failure counter carries over so an
// edit cannot silently clear an unhealthy status.
func (r *Registry) Update(ctx context.Context, cfg *types.WebhookConfiguration) (*types.WebhookConfiguration, error) {
	existing, err := r.Get(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	if err := r.validateConfig(cfg); err != nil {
		return nil, err
	}

	cfg.Secret = existing.Secret
	cfg.CreatedAt = existing.CreatedAt
	cfg.FailureCount = existing.FailureCount
	cfg.LastTriggeredAt = existing.LastTriggeredAt
	cfg.Status = types.DeriveStatus(cfg.Active, cfg.FailureCount, r.failingThreshold)

	if err := r.store.UpdateConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	r.cacheSet(ctx, *cfg)
	r.invalidateSubscribers(ctx)

	r.log.WithField("webhook_id", cfg.ID).Info("webhook configuration updated")
	return cfg, nil
}

// Delete removes the configuration. Recorded deliveries are retained for audit.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.DeleteConfiguration(ctx, id); err != nil {
		return err
	}
	r.cacheDelete(ctx, id)
	r.invalidateSubscribers(ctx)

	r.log.WithField("webhook_id", id).Info("webhook configuration deleted")
	return nil
}

// Get returns one configuration, consulting the cache first.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*types.WebhookConfiguration, error) {
	if r.redis != nil {
		if cfg, err := cache.GetConfigurationCache(ctx, r.redis, id.String()); err == nil {
			return &cfg, nil
		}
	}

	cfg, err := r.store.GetConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cacheSet(ctx, *cfg)
	return cfg, nil
}

// List returns every configuration, newest first.
func (r *Registry) List(ctx context.Context) ([]types.WebhookConfiguration, error) {
	return r.store.ListConfigurations(ctx)
}

// Toggle flips the active flag. Deactivating forces status to disabled
// regardless of the failure counter; reactivating recomputes it.
func (r *Registry) Toggle(ctx context.Context, id uuid.UUID, active bool) (*types.WebhookConfiguration, error) {
	if err := r.store.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	r.cacheDelete(ctx, id)
	r.invalidateSubscribers(ctx)
	return r.Get(ctx, id)
}

// RotateSecret invalidates the current secret and stores a fresh one. The new
// secret is returned in full exactly once. Counters and status are untouched;
// in-flight deliveries keep the secret they snapshotted at sequence start.
func (r *Registry) RotateSecret(ctx context.Context, id uuid.UUID) (string, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return "", err
	}

	secret, err := signature.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := r.store.UpdateSecret(ctx, id, secret); err != nil {
		return "", err
	}
	r.cacheDelete(ctx, id)
	r.invalidateSubscribers(ctx)

	r.log.WithField("webhook_id", id).Info("webhook secret rotated")
	return secret, nil
}

// ActiveSubscribers resolves the active configurations subscribed to event.
// Used by the dispatcher on every event occurrence, so results are cached
// briefly.
func (r *Registry) ActiveSubscribers(ctx context.Context, event types.WebhookEvent) ([]types.WebhookConfiguration, error) {
	if r.redis != nil {
		if configs, err := cache.GetSubscriberCache(ctx, r.redis, event); err == nil {
			return configs, nil
		}
	}

	configs, err := r.store.ListActiveByEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	if r.redis != nil {
		if err := cache.SetSubscriberCache(ctx, r.redis, event, configs); err != nil {
			r.log.WithError(err).Warn("failed to cache subscriber list")
		}
	}
	return configs, nil
}

// RecordOutcome applies one concluded delivery sequence to the configuration's
// health counters. Recording against a deleted configuration is a no-op.
func (r *Registry) RecordOutcome(ctx context.Context, id uuid.UUID, success bool) error {
	if err := r.store.RecordOutcome(ctx, id, success, r.failingThreshold, time.Now().UTC()); err != nil {
		return err
	}
	r.cacheDelete(ctx, id)
	return nil
}

func (r *Registry) validateConfig(cfg *types.WebhookConfiguration) error {
	var violations []string

	if cfg.Name == "" {
		violations = append(violations, "name is required")
	}
	if len(cfg.Events) == 0 {
		violations = append(violations, "at least one event is required")
	}
	for _, e := range cfg.Events {
		if !types.KnownEvent(e) {
			violations = append(violations, fmt.Sprintf("unknown event %q", e))
		}
	}
	if _, err := r.validator.ValidateSyntax(cfg.URL); err != nil {
		violations = append(violations, err.Error())
	}
	if cfg.MaxRetries < minRetries || cfg.MaxRetries > maxRetries {
		violations = append(violations, fmt.Sprintf("max_retries must be between %d and %d", minRetries, maxRetries))
	}

	if len(violations) > 0 {
		return &types.ValidationError{Violations: violations}
	}
	return nil
}

func (r *Registry) cacheSet(ctx context.Context, cfg types.WebhookConfiguration) {
	if r.redis == nil {
		return
	}
	if err := cache.SetConfigurationCache(ctx, r.redis, cfg); err != nil {
		r.log.WithError(err).WithField("webhook_id", cfg.ID).Warn("failed to cache configuration")
	}
}

func (r *Registry) cacheDelete(ctx context.Context, id uuid.UUID) {
	if r.redis == nil {
		return
	}
	if err := cache.DeleteConfigurationCache(ctx, r.redis, id.String()); err != nil {
		r.log.WithError(err).WithField("webhook_id", id).Warn("failed to invalidate configuration cache")
	}
}

func (r *Registry) invalidateSubscribers(ctx context.Context) {
	if r.redis == nil {
		return
	}
	if err := cache.InvalidateSubscriberCaches(ctx, r.redis); err != nil {
		r.log.WithError(err).Warn("failed to invalidate subscriber caches")
	}
}

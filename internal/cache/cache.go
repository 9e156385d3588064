package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

const (
	configKeyPrefix      = "webhook:config:"
	subscribersKeyPrefix = "webhook:subscribers:"

	configTTL = 24 * time.Hour
	// Subscriber lists are only a dispatch fast path, so they expire quickly.
	subscribersTTL = 30 * time.Second
)

// SetConfigurationCache stores one configuration under its id.
func SetConfigurationCache(ctx context.Context, r *redis.Client, cfg types.WebhookConfiguration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.Set(ctx, configKeyPrefix+cfg.ID.String(), data, configTTL).Err()
}

// GetConfigurationCache fetches a cached configuration; redis.Nil on miss.
func GetConfigurationCache(ctx context.Context, r *redis.Client, id string) (types.WebhookConfiguration, error) {
	var cfg types.WebhookConfiguration
	val, err := r.Get(ctx, configKeyPrefix+id).Result()
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal([]byte(val), &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DeleteConfigurationCache drops a cached configuration.
func DeleteConfigurationCache(ctx context.Context, r *redis.Client, id string) error {
	return r.Del(ctx, configKeyPrefix+id).Err()
}

// SetSubscriberCache stores the resolved active subscriber list for one event.
func SetSubscriberCache(ctx context.Context, r *redis.Client, event types.WebhookEvent, configs []types.WebhookConfiguration) error {
	data, err := json.Marshal(configs)
	if err != nil {
		return err
	}
	return r.Set(ctx, subscribersKeyPrefix+string(event), data, subscribersTTL).Err()
}

// GetSubscriberCache fetches the cached subscriber list for one event;
// redis.Nil on miss.
func GetSubscriberCache(ctx context.Context, r *redis.Client, event types.WebhookEvent) ([]types.WebhookConfiguration, error) {
	val, err := r.Get(ctx, subscribersKeyPrefix+string(event)).Result()
	if err != nil {
		return nil, err
	}
	var configs []types.WebhookConfiguration
	if err := json.Unmarshal([]byte(val), &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// InvalidateSubscriberCaches drops the subscriber lists for every known event.
// The event set is closed, so this is a bounded DEL rather than a key scan.
func InvalidateSubscriberCaches(ctx context.Context, r *redis.Client) error {
	catalog := types.EventCatalog()
	keys := make([]string, len(catalog))
	for i, info := range catalog {
		keys[i] = subscribersKeyPrefix + string(info.Key)
	}
	return r.Del(ctx, keys...).Err()
}

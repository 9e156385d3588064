package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

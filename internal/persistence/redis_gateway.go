package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisGateway keeps the slot under a single Redis key.
type RedisGateway struct {
	client *redis.Client
	key    string
}

// NewRedisGateway stores the slot at prefix+slot.
func NewRedisGateway(client *redis.Client, prefix, slot string) *RedisGateway {
	return &RedisGateway{client: client, key: prefix + slot}
}

// Name implements Gateway.
func (g *RedisGateway) Name() string { return "redis" }

// Key returns the Redis key of the slot.
func (g *RedisGateway) Key() string { return g.key }

// Load implements Gateway.
func (g *RedisGateway) Load(ctx context.Context) ([]byte, error) {
	payload, err := g.client.Get(ctx, g.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", g.key, err)
	}
	return payload, nil
}

// Save implements Gateway.
func (g *RedisGateway) Save(ctx context.Context, payload []byte) error {
	if err := g.client.Set(ctx, g.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", g.key, err)
	}
	return nil
}

// Ping implements Gateway.
func (g *RedisGateway) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

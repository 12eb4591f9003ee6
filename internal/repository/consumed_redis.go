package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConsumedStore marks consumed signals in Redis with SETNX so the
// at-most-once guarantee survives restarts and covers multiple instances.
type RedisConsumedStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisConsumedStore(addr, password string, db int, ttl time.Duration) (*RedisConsumedStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisConsumedStore{client: client, prefix: "sweepguard:consumed:", ttl: ttl}, nil
}

func (s *RedisConsumedStore) MarkConsumed(ctx context.Context, signalID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+signalID, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark consumed: %w", err)
	}
	return ok, nil
}

func (s *RedisConsumedStore) Close() error { return s.client.Close() }

package data

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deliveredSetKey = "weibo:stock:delivered"

// RedisDelivered is a delivered-ID store shared between processes, backed
// by a Redis set.
type RedisDelivered struct {
	client *redis.Client
}

// NewRedisDelivered connects to Redis and validates the connection.
func NewRedisDelivered(addr, password string, db int) (*RedisDelivered, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	return &RedisDelivered{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisDelivered) Close() error {
	return s.client.Close()
}

func (s *RedisDelivered) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, deliveredSetKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query delivered id: %w", err)
	}
	return ok, nil
}

func (s *RedisDelivered) Add(ctx context.Context, id string) error {
	if err := s.client.SAdd(ctx, deliveredSetKey, id).Err(); err != nil {
		return fmt.Errorf("failed to record delivered id: %w", err)
	}
	return nil
}

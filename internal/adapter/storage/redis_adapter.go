package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/warehouse-inventory/internal/core/domain"
)

const (
	statsKey        = "inventory:stats"
	categoriesKey   = "inventory:categories"
	DefaultCacheTTL = 30 * time.Second
)

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) GetStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	ok, err := r.get(ctx, statsKey, &stats)
	if err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

func (r *RedisAdapter) SetStats(ctx context.Context, stats domain.Stats) error {
	return r.set(ctx, statsKey, stats)
}

func (r *RedisAdapter) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	ok, err := r.get(ctx, categoriesKey, &categories)
	if err != nil || !ok {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (r *RedisAdapter) SetCategories(ctx context.Context, categories []string) error {
	return r.set(ctx, categoriesKey, categories)
}

func (r *RedisAdapter) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, statsKey, categoriesKey).Err()
}

func (r *RedisAdapter) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisAdapter) set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.Set(ctx, key, raw, r.ttl).Err()
}

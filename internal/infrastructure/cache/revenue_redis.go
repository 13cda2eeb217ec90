// Package cache provides the revenue report caches: Redis for deployed
// servers, an in-process map for single-node runs, and a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"retailops/internal/domain/reports/revenue"
)

const (
	revenueKeyPrefix = "retailops:revenue"
	revenueGenKey    = revenueKeyPrefix + ":gen"
)

var _ revenue.Cache = (*RedisRevenueCache)(nil)

var errStaleGeneration = errors.New("stale revenue cache generation")

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisRevenueCache stores reports as JSON under a generation-scoped key.
// Invalidate increments the generation; stale entries expire by TTL.
type RedisRevenueCache struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
}

// NewRedisRevenueCache connects to Redis and verifies the connection.
func NewRedisRevenueCache(ctx context.Context, cfg RedisConfig, ttl time.Duration) (*RedisRevenueCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRevenueCache{client: client, ownsClient: true, ttl: ttl}, nil
}

// NewRedisRevenueCacheWithClient uses an existing client. The caller keeps ownership.
func NewRedisRevenueCacheWithClient(client *redis.Client, ttl time.Duration) *RedisRevenueCache {
	return &RedisRevenueCache{client: client, ttl: ttl}
}

// Get returns the report stored under key for the current generation,
// along with that generation.
func (c *RedisRevenueCache) Get(ctx context.Context, key string) (*revenue.Report, int64, error) {
	gen, err := generation(ctx, c.client)
	if err != nil {
		return nil, 0, err
	}

	val, err := c.client.Get(ctx, dataKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("redis get: %w", err)
	}

	var report revenue.Report
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, 0, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, gen, nil
}

// Set stores report under key for gen. The generation key is watched, so
// the write is dropped when gen is no longer current or an Invalidate
// lands before the write commits.
func (c *RedisRevenueCache) Set(ctx context.Context, key string, gen int64, report *revenue.Report) error {
	if report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey(gen, key), payload, c.ttl)
			return nil
		})
		return err
	}, revenueGenKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("redis set: %w", err)
	}
}

// Invalidate moves to a new generation.
func (c *RedisRevenueCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, revenueGenKey).Err(); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisRevenueCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client if this cache created it.
func (c *RedisRevenueCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, rdb stringGetter) (int64, error) {
	val, err := rdb.Get(ctx, revenueGenKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", val, err)
	}
	return gen, nil
}

func dataKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", revenueKeyPrefix, gen, key)
}

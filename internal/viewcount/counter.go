// Package viewcount accumulates video view counts in a hot store and folds
// them into the videos table in the background, keeping the read path free of
// writes against PostgreSQL.
package viewcount

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "views:"

// Counter accumulates pending view deltas per video.
type Counter interface {
	// Increment records one view of the video.
	Increment(ctx context.Context, videoID string) error
	// Drain atomically removes and returns all pending deltas.
	Drain(ctx context.Context) (map[string]int64, error)
}

// RedisCounter accumulates view deltas in Redis using one INCR key per video.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter constructs a counter backed by the provided Redis client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Increment records one view.
func (c *RedisCounter) Increment(ctx context.Context, videoID string) error {
	if err := c.client.Incr(ctx, keyPrefix+videoID).Err(); err != nil {
		return fmt.Errorf("incr view count: %w", err)
	}
	return nil
}

// Drain removes and returns every pending delta. GETDEL keeps increments that
// land mid-drain safe: they either appear in this drain or the next one.
func (c *RedisCounter) Drain(ctx context.Context) (map[string]int64, error) {
	deltas := make(map[string]int64)

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan view keys: %w", err)
		}

		for _, key := range keys {
			value, err := c.client.GetDel(ctx, key).Int64()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				return nil, fmt.Errorf("getdel view key %s: %w", key, err)
			}
			if value > 0 {
				deltas[strings.TrimPrefix(key, keyPrefix)] += value
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deltas, nil
}

// MemoryCounter is an in-process Counter used in tests and when Redis is not
// configured.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewMemoryCounter constructs an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

// Increment records one view.
func (c *MemoryCounter) Increment(_ context.Context, videoID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[videoID]++
	return nil
}

// Drain removes and returns all pending deltas.
func (c *MemoryCounter) Drain(_ context.Context) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	drained := c.counts
	c.counts = make(map[string]int64)
	return drained, nil
}

var (
	_ Counter = (*RedisCounter)(nil)
	_ Counter = (*MemoryCounter)(nil)
)

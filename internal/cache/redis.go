// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces embedding keys so Clear never touches
// keys owned by other services sharing the Redis instance.
const DefaultKeyPrefix = "jg:embedding:"

// clearScanCount is the SCAN page size used by Clear.
const clearScanCount = 100

// Redis is the shared cache tier backed by a Redis instance. Keys are
// the hex SHA-256 of the input text under a service prefix, so caption
// text never appears in the keyspace and key length stays bounded.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewRedis creates a Redis-backed cache tier. The client is owned and
// closed by the caller.
func NewRedis(client redis.UniversalClient, ttl time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

// key derives the Redis key for an input text.
func (r *Redis) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return r.prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for text.
func (r *Redis) Get(ctx context.Context, text string) ([]float32, bool, error) {
	raw, err := r.client.Get(ctx, r.key(text)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		// A corrupt entry is treated as a miss and removed so it
		// cannot poison future lookups.
		r.client.Del(ctx, r.key(text))
		r.misses.Add(1)
		return nil, false, nil
	}

	r.hits.Add(1)
	return vector, true, nil
}

// Set stores the vector for text with the configured TTL.
func (r *Redis) Set(ctx context.Context, text string, vector []float32) error {
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	if err := r.client.Set(ctx, r.key(text), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear deletes every key under the service prefix using SCAN so large
// keyspaces are walked incrementally instead of blocking the server
// with KEYS.
func (r *Redis) Clear(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", clearScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(deleted)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.evictions.Add(int64(removed))
	return removed, nil
}

// Stats counts keys under the prefix via SCAN and reports the local
// hit and miss counters. Counters are per-process; other instances
// sharing the Redis keyspace keep their own.
func (r *Redis) Stats(ctx context.Context) (Stats, error) {
	var (
		cursor  uint64
		entries int64
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", clearScanCount).Result()
		if err != nil {
			return Stats{}, fmt.Errorf("redis scan: %w", err)
		}
		entries += int64(len(keys))

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return Stats{
		Tier:      r.Name(),
		Entries:   entries,
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Evictions: r.evictions.Load(),
	}, nil
}

// Name identifies the tier.
func (r *Redis) Name() string {
	return "redis"
}

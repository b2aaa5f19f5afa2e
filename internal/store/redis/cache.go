package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Get loads a cached entry into dst. ok is false on a miss.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, CacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return true, nil
}

// Set stores value under key for ttl and records it in every tag set
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	fullKey := CacheKey(key)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, fullKey, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, TagKey(tag), fullKey)
		pipe.Expire(ctx, TagKey(tag), ttl+tagSetSlack)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache entry: %w", err)
	}
	return nil
}

// InvalidateTags removes every entry carrying one of tags and returns how
// many entries went away
func (s *Store) InvalidateTags(ctx context.Context, tags ...string) (int, error) {
	removed := 0
	for _, tag := range tags {
		tagKey := TagKey(tag)
		keys, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to read tag %s: %w", tag, err)
		}

		pipe := s.client.TxPipeline()
		var del *redis.IntCmd
		if len(keys) > 0 {
			del = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, tagKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
		}
		if del != nil {
			removed += int(del.Val())
		}
	}
	return removed, nil
}

// Flush removes all cached entries and tag sets
func (s *Store) Flush(ctx context.Context) error {
	for _, pattern := range []string{KeyPrefixCache + "*", KeyPrefixTag + "*"} {
		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("failed to delete cache key: %w", err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to flush cache: %w", err)
		}
	}
	return nil
}

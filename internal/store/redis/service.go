package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCacheTTL is the default freshness window of cached responses (24 hours)
	DefaultCacheTTL = 24 * time.Hour
	// tagSetSlack keeps tag sets alive a little longer than their members so
	// an invalidation never misses a live entry
	tagSetSlack = time.Hour
)

// Store is a tag-invalidated response cache backed by Redis
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks that Redis answers
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

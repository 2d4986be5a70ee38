package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSeenTTL is how long a processed email id is remembered.
const DefaultSeenTTL = 24 * time.Hour

// SeenFilter tracks which email ids have already been processed.
type SeenFilter struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSeenFilter creates a filter backed by Redis. A zero ttl uses DefaultSeenTTL.
func NewSeenFilter(rdb *redis.Client, prefix string, ttl time.Duration) *SeenFilter {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	return &SeenFilter{rdb: rdb, prefix: prefix, ttl: ttl}
}

// DialSeenFilter parses a redis:// URL and pings the server.
func DialSeenFilter(ctx context.Context, url, prefix string, ttl time.Duration) (*SeenFilter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewSeenFilter(rdb, prefix, ttl), nil
}

// IsNew reports whether id has not been seen, marking it seen atomically.
func (f *SeenFilter) IsNew(ctx context.Context, id string) (bool, error) {
	set, err := f.rdb.SetNX(ctx, f.prefix+id, 1, f.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("seen SETNX: %w", err)
	}
	return set, nil
}

// Close closes the Redis client.
func (f *SeenFilter) Close() error {
	return f.rdb.Close()
}

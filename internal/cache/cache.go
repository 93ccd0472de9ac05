package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with a per-entry TTL.
// A ttl <= 0 means the entry does not expire.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

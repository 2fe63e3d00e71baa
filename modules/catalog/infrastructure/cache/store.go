package cache

import (
	"context"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Store.Get when the key is absent or expired.
var ErrCacheMiss = fmt.Errorf("cache miss")

// Store is the minimal key/value surface the coordinator needs. Redis backs
// it in production; the in-memory store backs tests and single-node dev.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores the value only when the key is absent and reports whether
	// the write happened.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
}

package cache

import (
	"context"
	"time"
)

// BytesCache stores marshaled HTTP responses keyed by query shape. The
// /v1 read endpoints serve repeat dashboard polls from here until the
// TTL lapses instead of hitting ClickHouse every time.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

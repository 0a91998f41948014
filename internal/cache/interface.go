package cache

import (
	"context"
	"time"
)

// Cache backs the storefront's persistent slots: the serialized cart
// snapshot and the currently-applied coupon code.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

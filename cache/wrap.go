package cache

import (
	"context"
	"time"
)

// Wrap is the generic cache-aside adapter: on a hit it decodes and returns
// the cached value; on a miss it calls fn, caches the result under ttl, and
// returns it. fn is only ever invoked on a miss.
func Wrap[T any](ctx context.Context, c *Client, op, version string, args map[string]any, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	key := DeriveKey(op, version, args)

	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(ctx, key, result, ttl)
	return result, nil
}

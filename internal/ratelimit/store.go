package ratelimit

import (
	"context"
	"time"
)

// Store counts the requests recorded under a key. Implementations must count the
// request being recorded and forget entries older than window.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// StoreFunc adapts a function to a Store.
type StoreFunc func(ctx context.Context, key string, window time.Duration) (int64, error)

func (f StoreFunc) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	return f(ctx, key, window)
}

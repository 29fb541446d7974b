package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// LimitConfig is a maximum number of requests within a sliding window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

func (c LimitConfig) String() string {
	return fmt.Sprintf("%d per %s", c.Max, c.Window)
}

// SlidingWindowLimiter enforces a single LimitConfig using a sliding window.
type SlidingWindowLimiter struct {
	store  Store
	config LimitConfig
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		config: LimitConfig{Window: window, Max: limit},
	}
}

// Config returns the enforced limit.
func (l *SlidingWindowLimiter) Config() LimitConfig {
	return l.config
}

// Count records a request for key and returns the number seen in the window.
// Keys are namespaced by window so limiters sharing a store never collide.
func (l *SlidingWindowLimiter) Count(ctx context.Context, key string) (int64, error) {
	return l.store.Record(ctx, fmt.Sprintf("%s:%d", key, l.config.Window.Milliseconds()), l.config.Window)
}

// Allow records a request for key and reports whether it fits the limit, along
// with the count it was judged on.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	count, err := l.Count(ctx, key)
	if err != nil {
		return false, 0, err
	}

	return count <= l.config.Max, count, nil
}

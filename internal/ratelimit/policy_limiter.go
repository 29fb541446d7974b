package ratelimit

import (
	"context"
	"slices"
	"time"
)

// Policy maps scopes to the limits applied to them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// NewSubmissionPolicy limits each of the given scopes to perMinute and perHour
// requests. A non-positive value disables that window.
func NewSubmissionPolicy(perMinute, perHour int64, scopes ...Scope) *Policy {
	var limits []LimitConfig

	if perMinute > 0 {
		limits = append(limits, LimitConfig{Window: time.Minute, Max: perMinute})
	}

	if perHour > 0 {
		limits = append(limits, LimitConfig{Window: time.Hour, Max: perHour})
	}

	policy := &Policy{Limits: make(map[Scope][]LimitConfig, len(scopes))}
	for _, scope := range scopes {
		policy.Limits[scope] = slices.Clone(limits)
	}

	return policy
}

// Limit allows n requests per window for scope. A non-positive n is ignored.
func (p *Policy) Limit(scope Scope, window time.Duration, n int64) *Policy {
	if n > 0 && window > 0 {
		p.Limits[scope] = append(p.Limits[scope], LimitConfig{Window: window, Max: n})
	}

	return p
}

// LimitExceeded contains information about which limit was exceeded.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter enforces rate limits based on a policy and resolved scopes.
type PolicyLimiter struct {
	limiters map[Scope][]*SlidingWindowLimiter
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	limiters := make(map[Scope][]*SlidingWindowLimiter, len(policy.Limits))

	for scope, limits := range policy.Limits {
		for _, limit := range limits {
			limiters[scope] = append(limiters[scope], NewSlidingWindowLimiter(store, limit.Max, limit.Window))
		}
	}

	return &PolicyLimiter{limiters: limiters}
}

// Allow checks if a request should be allowed based on the client key and applicable scopes.
// The LimitExceeded return value provides details about which limit was hit (nil if allowed).
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limiter := range l.limiters[scope] {
			allowed, count, err := limiter.Allow(ctx, clientKey+":"+string(scope))
			if err != nil {
				return false, nil, err
			}

			if !allowed {
				return false, &LimitExceeded{
					Scope:  scope,
					Config: limiter.Config(),
					Count:  count,
				}, nil
			}
		}
	}

	return true, nil, nil
}

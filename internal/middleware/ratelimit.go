package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"github.com/serroba/clck-web/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a middleware that applies policy-based rate limiting.
// It uses a ScopeResolver to determine which scopes apply to each request,
// then checks all applicable limits from the policy.
func RateLimiter(
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopes := resolver.Resolve(r)

			allowed, exceeded, err := limiter.Allow(r.Context(), clientKey(r), scopes)
			if err != nil {
				logger.Error("rate limit check failed", zap.String("path", r.URL.Path), zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)

				return
			}

			if !allowed {
				handleRateLimitExceeded(w, r, exceeded, logger)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// handleRateLimitExceeded logs and responds to a rate limit exceeded condition.
func handleRateLimitExceeded(w http.ResponseWriter, r *http.Request, exceeded *ratelimit.LimitExceeded, logger *zap.Logger) {
	msg := "rate limit exceeded"

	if exceeded != nil {
		msg = fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
			exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
		w.Header().Set("Retry-After", strconv.Itoa(int(exceeded.Config.Window.Seconds())))

		logger.Warn("rate limit exceeded",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("client_ip", ClientIP(r)),
		)
	}

	http.Error(w, msg, http.StatusTooManyRequests)
}

// clientKey derives the rate limit key from the client address alone; headers the
// client controls never take part.
func clientKey(r *http.Request) string {
	hash := sha256.Sum256([]byte(ClientIP(r)))

	return hex.EncodeToString(hash[:])
}

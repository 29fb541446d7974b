package middleware

import (
	"context"
	"net"
	"net/http"
)

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for activity events.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// RequestMetaHandler adds client IP, user-agent, and referrer to the request context.
func RequestMetaHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := RequestMeta{
			ClientIP:  ClientIP(r),
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		}

		next.ServeHTTP(w, r.WithContext(ContextWithRequestMeta(r.Context(), meta)))
	})
}

// ClientIP returns the host part of RemoteAddr. Forwarding headers are only
// honoured when chi's RealIP middleware ran first and rewrote RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

package ratelimit

import "net/http"

// Scope categorizes a request for rate limiting purposes.
// Different scopes can have different rate limits applied.
type Scope string

const (
	// ScopeGlobal applies to all requests regardless of type.
	ScopeGlobal Scope = "global"
	// ScopeRead applies to read operations (GET, HEAD, OPTIONS).
	ScopeRead Scope = "read"
	// ScopeWrite applies to write operations (POST, PUT, PATCH, DELETE).
	ScopeWrite Scope = "write"
	// ScopeSubmit applies to URL submissions.
	ScopeSubmit Scope = "submit"
	// ScopeCopy applies to copy requests.
	ScopeCopy Scope = "copy"
)

// ScopeResolver determines which scopes apply to a given request.
type ScopeResolver interface {
	Resolve(r *http.Request) []Scope
}

// MethodScopeResolver resolves scopes based on HTTP method.
// GET, HEAD, OPTIONS are classified as read operations.
// All other methods are classified as write operations.
type MethodScopeResolver struct{}

// NewMethodScopeResolver creates a new method-based scope resolver.
func NewMethodScopeResolver() *MethodScopeResolver {
	return &MethodScopeResolver{}
}

// Resolve returns the scopes that apply to the request based on its HTTP method.
func (r *MethodScopeResolver) Resolve(req *http.Request) []Scope {
	scopes := []Scope{ScopeGlobal}

	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		scopes = append(scopes, ScopeRead)
	default:
		scopes = append(scopes, ScopeWrite)
	}

	return scopes
}

// RouteScopeResolver assigns a scope to exact "METHOD /path" routes and falls
// back to method-based detection for everything else.
type RouteScopeResolver struct {
	routes   map[string]Scope
	fallback *MethodScopeResolver
}

// NewRouteScopeResolver creates a resolver for the given route table, keyed by
// "METHOD /path".
func NewRouteScopeResolver(routes map[string]Scope) *RouteScopeResolver {
	return &RouteScopeResolver{
		routes:   routes,
		fallback: NewMethodScopeResolver(),
	}
}

// Resolve returns the scopes for a request, checking the route table first.
func (r *RouteScopeResolver) Resolve(req *http.Request) []Scope {
	if scope, ok := r.routes[req.Method+" "+req.URL.Path]; ok {
		return []Scope{ScopeGlobal, scope}
	}

	return r.fallback.Resolve(req)
}

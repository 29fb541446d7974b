package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/clck-web/internal/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestMethodScopeResolver_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		expectedScopes []ratelimit.Scope
	}{
		{
			name:           "GET is classified as read",
			method:         http.MethodGet,
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead},
		},
		{
			name:           "HEAD is classified as read",
			method:         http.MethodHead,
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead},
		},
		{
			name:           "OPTIONS is classified as read",
			method:         http.MethodOptions,
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead},
		},
		{
			name:           "POST is classified as write",
			method:         http.MethodPost,
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite},
		},
		{
			name:           "DELETE is classified as write",
			method:         http.MethodDelete,
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite},
		},
	}

	resolver := ratelimit.NewMethodScopeResolver()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/", nil)

			assert.Equal(t, tt.expectedScopes, resolver.Resolve(req))
		})
	}
}

func TestRouteScopeResolver_Resolve(t *testing.T) {
	t.Parallel()

	resolver := ratelimit.NewRouteScopeResolver(map[string]ratelimit.Scope{
		"POST /":     ratelimit.ScopeSubmit,
		"POST /copy": ratelimit.ScopeCopy,
	})

	tests := []struct {
		name           string
		method         string
		path           string
		expectedScopes []ratelimit.Scope
	}{
		{
			name:           "submission route",
			method:         http.MethodPost,
			path:           "/",
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeSubmit},
		},
		{
			name:           "copy route",
			method:         http.MethodPost,
			path:           "/copy",
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeCopy},
		},
		{
			name:           "unknown write falls back to method",
			method:         http.MethodPost,
			path:           "/other",
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeWrite},
		},
		{
			name:           "same path with another method falls back",
			method:         http.MethodGet,
			path:           "/",
			expectedScopes: []ratelimit.Scope{ratelimit.ScopeGlobal, ratelimit.ScopeRead},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)

			assert.Equal(t, tt.expectedScopes, resolver.Resolve(req))
		})
	}
}

// Package redirect forwards visitors of a short code to the shortening service,
// which owns the actual resolution.
package redirect

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

var (
	ErrEmptyCode     = errors.New("short code is empty")
	ErrInvalidOrigin = errors.New("redirect origin must be an absolute http(s) url")
)

// Navigator moves the visitor to target. Navigation is fire-and-forget.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) {
	f(target)
}

// Request is a resolved visit for one short code.
type Request struct {
	Code   string
	Target string
}

// Resolver issues one navigation per activated code.
type Resolver struct {
	origin *url.URL
	nav    Navigator

	mu      sync.Mutex
	current *Request
}

// NewResolver creates a resolver that forwards to origin/<code>.
func NewResolver(origin string, nav Navigator) (*Resolver, error) {
	u, err := ParseOrigin(origin)
	if err != nil {
		return nil, err
	}

	return &Resolver{origin: u, nav: nav}, nil
}

// ParseOrigin validates the external resolution origin.
func ParseOrigin(origin string) (*url.URL, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrigin, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}

	return u, nil
}

// Target builds the resolution URL for code under origin.
func Target(origin *url.URL, code string) string {
	return strings.TrimSuffix(origin.String(), "/") + "/" + url.PathEscape(code)
}

// Activate navigates to the resolution endpoint for code. Activating the code that
// is already active issues no new navigation.
func (r *Resolver) Activate(code string) (Request, error) {
	if code == "" {
		return Request{}, ErrEmptyCode
	}

	r.mu.Lock()

	if r.current != nil && r.current.Code == code {
		req := *r.current
		r.mu.Unlock()

		return req, nil
	}

	req := Request{Code: code, Target: Target(r.origin, code)}
	r.current = &req
	r.mu.Unlock()

	r.nav.Navigate(req.Target)

	return req, nil
}

// CodeFromPath extracts the short code from a path with exactly one non-empty
// segment, such as "/abc123".
func CodeFromPath(path string) (string, bool) {
	code, ok := strings.CutPrefix(path, "/")
	if !ok || code == "" || strings.Contains(code, "/") {
		return "", false
	}

	return code, true
}

package redirect_test

import (
	"testing"

	"github.com/serroba/clck-web/internal/redirect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://api.clck.dev"

type recordingNavigator struct {
	targets []string
}

func (n *recordingNavigator) Navigate(target string) {
	n.targets = append(n.targets, target)
}

func TestNewResolver(t *testing.T) {
	t.Run("accepts an absolute origin", func(t *testing.T) {
		r, err := redirect.NewResolver(testOrigin, &recordingNavigator{})

		require.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("rejects relative or non-http origins", func(t *testing.T) {
		for _, origin := range []string{"", "/relative", "ftp://api.clck.dev", "https://", "::bad"} {
			_, err := redirect.NewResolver(origin, &recordingNavigator{})

			assert.ErrorIs(t, err, redirect.ErrInvalidOrigin, "origin %q", origin)
		}
	})
}

func TestResolver_Activate(t *testing.T) {
	t.Run("navigates once to the external endpoint", func(t *testing.T) {
		nav := &recordingNavigator{}
		r, err := redirect.NewResolver(testOrigin, nav)
		require.NoError(t, err)

		req, err := r.Activate("abc123")

		require.NoError(t, err)
		assert.Equal(t, "abc123", req.Code)
		assert.Equal(t, "https://api.clck.dev/abc123", req.Target)
		assert.Equal(t, []string{"https://api.clck.dev/abc123"}, nav.targets)
	})

	t.Run("same code does not navigate again", func(t *testing.T) {
		nav := &recordingNavigator{}
		r, _ := redirect.NewResolver(testOrigin, nav)

		_, _ = r.Activate("abc123")
		_, _ = r.Activate("abc123")

		assert.Len(t, nav.targets, 1)
	})

	t.Run("a new code navigates again", func(t *testing.T) {
		nav := &recordingNavigator{}
		r, _ := redirect.NewResolver(testOrigin, nav)

		_, _ = r.Activate("abc123")
		_, _ = r.Activate("xyz789")

		assert.Equal(t, []string{
			"https://api.clck.dev/abc123",
			"https://api.clck.dev/xyz789",
		}, nav.targets)
	})

	t.Run("empty code is rejected without navigation", func(t *testing.T) {
		nav := &recordingNavigator{}
		r, _ := redirect.NewResolver(testOrigin, nav)

		_, err := r.Activate("")

		assert.ErrorIs(t, err, redirect.ErrEmptyCode)
		assert.Empty(t, nav.targets)
	})

	t.Run("escapes the code as a single segment", func(t *testing.T) {
		nav := &recordingNavigator{}
		r, _ := redirect.NewResolver(testOrigin+"/", nav)

		req, err := r.Activate("a b?c")

		require.NoError(t, err)
		assert.Equal(t, "https://api.clck.dev/a%20b%3Fc", req.Target)
	})

	t.Run("works with a navigator func", func(t *testing.T) {
		var got string

		r, _ := redirect.NewResolver(testOrigin, redirect.NavigatorFunc(func(target string) {
			got = target
		}))

		_, err := r.Activate("abc123")

		require.NoError(t, err)
		assert.Equal(t, "https://api.clck.dev/abc123", got)
	})
}

func TestCodeFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
		ok   bool
	}{
		{name: "single segment", path: "/abc123", code: "abc123", ok: true},
		{name: "root", path: "/", ok: false},
		{name: "empty", path: "", ok: false},
		{name: "nested", path: "/abc/123", ok: false},
		{name: "trailing slash", path: "/abc123/", ok: false},
		{name: "no leading slash", path: "abc123", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := redirect.CodeFromPath(tt.path)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/serroba/clck-web/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	t.Run("logs method, path, status and request id", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)

		handler := chimw.RequestID(middleware.RequestLogger(zap.New(core))(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}),
		))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

		require.Equal(t, 1, logs.Len())

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/missing", fields["path"])
		assert.Equal(t, int64(http.StatusNotFound), fields["status"])
		assert.NotEmpty(t, fields["request_id"])
	})

	t.Run("reports 200 when the handler writes nothing", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)

		handler := middleware.RequestLogger(zap.New(core))(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
	})
}

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoverMiddleware(t *testing.T) {
	var logged []any
	logger := loggerFunc(func(_ string, v ...any) { logged = v })

	t.Run("panic recovered", func(t *testing.T) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("something terrible happened")
		})

		srv := httptest.NewServer(RecoverMiddleware(logger)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.JSONEq(t, `{"error": "service_error", "detail": "Internal server error"}`, string(body))
		require.Contains(t, logged, "something terrible happened", "panic value should be logged")
	})

	t.Run("no panic", func(t *testing.T) {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		srv := httptest.NewServer(RecoverMiddleware(logger)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/eshop/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// RecoverMiddleware turns panics into 500 responses and reports them to sentry
// http.ErrAbortHandler is re-panicked, net/http handles it itself
func RecoverMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetRequest(r)
					scope.SetExtra("stack", stack)
					sentry.CaptureException(fmt.Errorf("panic in request: %v", rec))
				})

				l.Error("Panic recovered", "method", r.Method, "uri", r.RequestURI, "panic", rec, "stack", stack)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

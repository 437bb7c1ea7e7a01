package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/storehaus/gatekeeper/internal/api/response"
	"github.com/storehaus/gatekeeper/internal/scope"
)

// ScopeResolver resolves the facility scope of a host name.
type ScopeResolver interface {
	Resolve(ctx context.Context, host string) (scope.Scope, error)
}

// Scope resolves the facility scope once per request and stores it in the
// context. A failed lookup holds the request in the loading state instead of
// serving it unscoped.
func Scope(resolver ScopeResolver, timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := scope.FromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			s, err := resolver.Resolve(ctx, r.Host)
			if err != nil {
				slog.Warn("facility scope lookup failed", "host", r.Host, "error", err, "requestId", GetRequestID(r.Context()))
				response.Unavailable(w, 1, "LOADING", "Facility scope is still being resolved", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r.WithContext(scope.WithScope(r.Context(), s)))
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storehaus/gatekeeper/internal/auth"
)

const identityKey contextKey = "identity"

// TokenVerifier turns a raw bearer token into an identity.
type TokenVerifier interface {
	Verify(rawToken string) (*auth.Identity, error)
}

// Authenticate is middleware that verifies the bearer token, if any, and
// stores the Identity in the context. It never rejects: an absent or invalid
// token simply leaves the request anonymous so the gate can route it.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken := auth.BearerToken(r.Header.Get("Authorization"))
			if rawToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(rawToken)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					slog.Error("token verification failed", "error", err, "requestId", GetRequestID(r.Context()))
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

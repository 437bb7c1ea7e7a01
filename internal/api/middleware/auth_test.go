package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/auth"
)

func captureIdentity(dst **auth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*dst = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	identity := newIdentity()
	verifier := &mockVerifier{tokens: map[string]*auth.Identity{"good-token": identity}}

	var got *auth.Identity
	handler := middleware.Authenticate(verifier)(captureIdentity(&got))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, identity.UserID, got.UserID)
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	verifier := &mockVerifier{}

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"invalid token", "Bearer forged"},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newIdentity()
			handler := middleware.Authenticate(verifier)(captureIdentity(&got))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, "authentication never rejects by itself")
			assert.Nil(t, got)
		})
	}
}

func TestGetIdentity_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, middleware.GetIdentity(req.Context()))
}

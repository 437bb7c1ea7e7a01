package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/storehaus/gatekeeper/internal/auth"
	"github.com/storehaus/gatekeeper/internal/role"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err)
	return env
}

// mockVerifier accepts a fixed set of tokens.
type mockVerifier struct {
	tokens map[string]*auth.Identity
}

func (m *mockVerifier) Verify(rawToken string) (*auth.Identity, error) {
	if id, ok := m.tokens[rawToken]; ok {
		return id, nil
	}
	return nil, auth.ErrInvalidToken
}

// mockResolver implements middleware.RoleResolver for testing.
type mockResolver struct {
	res   role.Resolution
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (m *mockResolver) Resolve(ctx context.Context, identity *auth.Identity) (role.Resolution, error) {
	m.calls.Add(1)
	if identity == nil {
		return role.Resolution{Status: role.NotApplicable}, nil
	}
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return role.Resolution{Status: role.Loading}, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.res, m.err
}

func resolvedAs(r role.Role) *mockResolver {
	return &mockResolver{res: role.Resolution{Status: role.Resolved, Role: r}}
}

func newIdentity() *auth.Identity {
	return &auth.Identity{
		UserID:       uuid.New(),
		EmailOrPhone: "renter@example.com",
		SessionToken: "sess-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehaus/gatekeeper/internal/api/handler"
	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/auth"
	"github.com/storehaus/gatekeeper/internal/gate"
	"github.com/storehaus/gatekeeper/internal/role"
	"github.com/storehaus/gatekeeper/internal/scope"
)

func getSession(t *testing.T, resolver *mockResolver, scopes *mockScopes, identity *auth.Identity) map[string]interface{} {
	t.Helper()
	guard := middleware.NewGuard(gate.New(gate.DefaultRoutes()), resolver, time.Second)
	h := handler.NewSessionHandler(guard, scopes, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Host = "eastside.storehaus.io"
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	w := httptest.NewRecorder()
	h.Get(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	return parseEnvelope(t, w)["data"].(map[string]interface{})
}

func TestSessionHandler_Anonymous(t *testing.T) {
	data := getSession(t, &mockResolver{}, &mockScopes{}, nil)

	assert.Equal(t, false, data["authenticated"])
	assert.NotContains(t, data, "userId")

	res := data["resolution"].(map[string]interface{})
	assert.Equal(t, "not_applicable", res["status"])
	assert.NotContains(t, res, "role")

	sc := data["scope"].(map[string]interface{})
	assert.Equal(t, "unscoped", sc["status"])
	assert.Equal(t, false, sc["isSubdomainRequest"])
}

func TestSessionHandler_ResolvedProviderOnFacilityHost(t *testing.T) {
	identity := newIdentity()
	facilityID := uuid.New()
	resolver := &mockResolver{res: role.Resolution{Status: role.Resolved, Role: role.Provider}}
	scopes := &mockScopes{s: scope.Scope{FacilityID: &facilityID, Subdomain: "eastside", IsSubdomainRequest: true}}

	data := getSession(t, resolver, scopes, identity)

	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, identity.UserID.String(), data["userId"])
	assert.Equal(t, identity.ExpiresAt.UTC().Format(time.RFC3339), data["expiresAt"])

	res := data["resolution"].(map[string]interface{})
	assert.Equal(t, "resolved", res["status"])
	assert.Equal(t, "provider", res["role"])

	sc := data["scope"].(map[string]interface{})
	assert.Equal(t, "resolved", sc["status"])
	assert.Equal(t, "eastside", sc["subdomain"])
	assert.Equal(t, facilityID.String(), sc["facilityId"])
}

func TestSessionHandler_UnknownSubdomain(t *testing.T) {
	scopes := &mockScopes{s: scope.Scope{Subdomain: "nowhere", IsSubdomainRequest: true}}

	data := getSession(t, &mockResolver{}, scopes, nil)

	sc := data["scope"].(map[string]interface{})
	assert.Equal(t, "unresolved", sc["status"])
	assert.Equal(t, "nowhere", sc["subdomain"])
	assert.NotContains(t, sc, "facilityId")
}

func TestSessionHandler_ScopeFailureKeepsRole(t *testing.T) {
	resolver := &mockResolver{res: role.Resolution{Status: role.Resolved, Role: role.Customer}}
	scopes := &mockScopes{
		s:   scope.Scope{Subdomain: "eastside", IsSubdomainRequest: true},
		err: errors.New("connection reset"),
	}

	data := getSession(t, resolver, scopes, newIdentity())

	res := data["resolution"].(map[string]interface{})
	assert.Equal(t, "resolved", res["status"])
	assert.Equal(t, "customer", res["role"])

	sc := data["scope"].(map[string]interface{})
	assert.Equal(t, "loading", sc["status"])
	assert.Equal(t, "eastside", sc["subdomain"])
}

func TestSessionHandler_ResolutionError(t *testing.T) {
	resolver := &mockResolver{err: errors.New("resolver closed")}

	data := getSession(t, resolver, &mockScopes{}, newIdentity())

	assert.Equal(t, true, data["authenticated"])
	res := data["resolution"].(map[string]interface{})
	assert.Equal(t, "errored", res["status"])
	assert.NotContains(t, res, "role")
}

func TestSessionHandler_ExpiredIdentityIsAnonymous(t *testing.T) {
	identity := newIdentity()
	identity.ExpiresAt = time.Now().Add(-time.Minute)

	data := getSession(t, &mockResolver{}, &mockScopes{}, identity)

	assert.Equal(t, false, data["authenticated"])
	assert.NotContains(t, data, "userId")
	res := data["resolution"].(map[string]interface{})
	assert.Equal(t, "not_applicable", res["status"])
}

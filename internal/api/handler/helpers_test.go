package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/storehaus/gatekeeper/internal/auth"
	"github.com/storehaus/gatekeeper/internal/facility"
	"github.com/storehaus/gatekeeper/internal/profile"
	"github.com/storehaus/gatekeeper/internal/role"
	"github.com/storehaus/gatekeeper/internal/scope"
)

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newIdentity() *auth.Identity {
	return &auth.Identity{
		UserID:       uuid.New(),
		EmailOrPhone: "owner@eastside-storage.test",
		SessionToken: "sess-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

type mockResolver struct {
	res role.Resolution
	err error
}

func (m *mockResolver) Resolve(_ context.Context, identity *auth.Identity) (role.Resolution, error) {
	if identity == nil {
		return role.Resolution{Status: role.NotApplicable}, nil
	}
	return m.res, m.err
}

type mockScopes struct {
	s   scope.Scope
	err error
}

func (m *mockScopes) Resolve(_ context.Context, _ string) (scope.Scope, error) {
	return m.s, m.err
}

type mockProfiles struct {
	p   *profile.Profile
	err error
}

func (m *mockProfiles) GetByUserID(_ context.Context, _ uuid.UUID) (*profile.Profile, error) {
	return m.p, m.err
}

type mockFacilities struct {
	byID  map[uuid.UUID]*facility.Facility
	list  []facility.Facility
	err   error
	calls int
}

func (m *mockFacilities) GetByID(_ context.Context, id uuid.UUID) (*facility.Facility, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.byID[id]
	if !ok {
		return nil, facility.ErrFacilityNotFound
	}
	return f, nil
}

func (m *mockFacilities) ListByProviderID(_ context.Context, _ uuid.UUID) ([]facility.Facility, error) {
	m.calls++
	return m.list, m.err
}

type mockChecker struct{ has bool }

func (m *mockChecker) HasFacility(_ context.Context, _ uuid.UUID) bool { return m.has }

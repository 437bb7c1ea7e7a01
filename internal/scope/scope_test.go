package scope_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehaus/gatekeeper/internal/facility"
	"github.com/storehaus/gatekeeper/internal/scope"
)

// mockFinder implements scope.FacilityFinder for testing.
type mockFinder struct {
	facilities map[string]uuid.UUID
	err        error
	calls      []string
}

func (m *mockFinder) GetBySubdomain(_ context.Context, subdomain string) (*facility.Facility, error) {
	m.calls = append(m.calls, subdomain)
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.facilities[subdomain]
	if !ok {
		return nil, facility.ErrFacilityNotFound
	}
	return &facility.Facility{ID: id, Name: subdomain}, nil
}

func newResolver(finder scope.FacilityFinder) *scope.Resolver {
	return scope.NewResolver(finder, scope.Options{
		BaseDomain:     "example-base-domain.io",
		ReservedLabels: []string{"www", "app"},
		DevHosts:       []string{"gatekeeper.internal"},
	})
}

func TestSubdomain(t *testing.T) {
	r := newResolver(&mockFinder{})

	tests := []struct {
		host  string
		label string
		ok    bool
	}{
		{"tenant1.example-base-domain.io", "tenant1", true},
		{"Tenant1.Example-Base-Domain.io", "tenant1", true},
		{"tenant1.example-base-domain.io:8443", "tenant1", true},
		{"tenant1.example-base-domain.io.", "tenant1", true},
		{"example-base-domain.io", "", false},
		{"www.example-base-domain.io", "", false},
		{"app.example-base-domain.io", "", false},
		{"a.b.example-base-domain.io", "", false},
		{"tenant1.other-domain.io", "", false},
		{"tenant1example-base-domain.io", "", false},
		{"localhost", "", false},
		{"localhost:5173", "", false},
		{"tenant1.localhost", "", false},
		{"printer.local", "", false},
		{"127.0.0.1:8080", "", false},
		{"[::1]:8080", "", false},
		{"gatekeeper.internal", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			label, ok := r.Subdomain(tt.host)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestResolve_Scoped(t *testing.T) {
	id := uuid.New()
	finder := &mockFinder{facilities: map[string]uuid.UUID{"tenant1": id}}
	r := newResolver(finder)

	s, err := r.Resolve(context.Background(), "tenant1.example-base-domain.io")
	require.NoError(t, err)

	assert.True(t, s.IsSubdomainRequest)
	assert.Equal(t, "tenant1", s.Subdomain)
	require.NotNil(t, s.FacilityID)
	assert.Equal(t, id, *s.FacilityID)
	assert.False(t, s.Unresolved())
	assert.Equal(t, []string{"tenant1"}, finder.calls, "exactly one lookup")
}

func TestResolve_Localhost(t *testing.T) {
	finder := &mockFinder{}
	r := newResolver(finder)

	s, err := r.Resolve(context.Background(), "localhost")
	require.NoError(t, err)

	assert.False(t, s.IsSubdomainRequest)
	assert.Empty(t, s.Subdomain)
	assert.Nil(t, s.FacilityID)
	assert.Empty(t, finder.calls, "unscoped hosts never hit the backend")
}

func TestResolve_ClaimedButUnresolved(t *testing.T) {
	r := newResolver(&mockFinder{facilities: map[string]uuid.UUID{}})

	s, err := r.Resolve(context.Background(), "ghost.example-base-domain.io")
	require.NoError(t, err)

	assert.True(t, s.IsSubdomainRequest)
	assert.Equal(t, "ghost", s.Subdomain)
	assert.Nil(t, s.FacilityID)
	assert.True(t, s.Unresolved())
}

func TestResolve_LookupFailureIsNotUnscoped(t *testing.T) {
	r := newResolver(&mockFinder{err: errors.New("connection refused")})

	s, err := r.Resolve(context.Background(), "tenant1.example-base-domain.io")
	require.Error(t, err)
	assert.True(t, s.IsSubdomainRequest)
	assert.Nil(t, s.FacilityID)
}

func TestResolve_EmptyBaseDomainNeverScopes(t *testing.T) {
	finder := &mockFinder{}
	r := scope.NewResolver(finder, scope.Options{})

	s, err := r.Resolve(context.Background(), "tenant1.example.io")
	require.NoError(t, err)
	assert.False(t, s.IsSubdomainRequest)
	assert.Empty(t, finder.calls)
}

func TestContext(t *testing.T) {
	_, ok := scope.FromContext(context.Background())
	assert.False(t, ok)

	want := scope.Scope{Subdomain: "tenant1", IsSubdomainRequest: true}
	got, ok := scope.FromContext(scope.WithScope(context.Background(), want))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/storehaus/gatekeeper/internal/facility"
)

// Scope binds a request to a facility through its host name.
type Scope struct {
	// FacilityID is nil when no scope was requested or when the subdomain
	// did not match a facility.
	FacilityID         *uuid.UUID
	Subdomain          string
	IsSubdomainRequest bool
}

// Unresolved reports whether the host claimed a facility scope that no
// facility answers to.
func (s Scope) Unresolved() bool {
	return s.IsSubdomainRequest && s.FacilityID == nil
}

// FacilityFinder translates a subdomain to its facility.
type FacilityFinder interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*facility.Facility, error)
}

// Options configures host classification.
type Options struct {
	BaseDomain string
	// ReservedLabels are leftmost labels that belong to the platform, not a tenant.
	ReservedLabels []string
	// DevHosts are additional host names treated as local development.
	DevHosts []string
}

// Resolver classifies host names and resolves facility scopes.
type Resolver struct {
	finder   FacilityFinder
	suffix   string
	reserved map[string]bool
	dev      map[string]bool
}

// NewResolver creates a Resolver for the given base domain.
func NewResolver(finder FacilityFinder, opts Options) *Resolver {
	r := &Resolver{
		finder:   finder,
		suffix:   "." + normalizeHost(opts.BaseDomain),
		reserved: make(map[string]bool, len(opts.ReservedLabels)),
		dev:      map[string]bool{"localhost": true},
	}
	for _, l := range opts.ReservedLabels {
		if l = strings.TrimSpace(strings.ToLower(l)); l != "" {
			r.reserved[l] = true
		}
	}
	for _, h := range opts.DevHosts {
		if h = normalizeHost(h); h != "" {
			r.dev[h] = true
		}
	}
	return r
}

// Subdomain classifies host and returns the tenant label, if any. It does
// not touch the backend.
func (r *Resolver) Subdomain(host string) (string, bool) {
	h := normalizeHost(host)
	if h == "" || r.isDevHost(h) {
		return "", false
	}
	if r.suffix == "." || !strings.HasSuffix(h, r.suffix) {
		return "", false
	}

	label := strings.TrimSuffix(h, r.suffix)
	if label == "" || strings.Contains(label, ".") || r.reserved[label] {
		return "", false
	}
	return label, true
}

// Resolve classifies host and, when it is a tenant subdomain, performs one
// lookup for the facility. A lookup error is returned as is; callers must
// not treat it as "unscoped".
func (r *Resolver) Resolve(ctx context.Context, host string) (Scope, error) {
	label, ok := r.Subdomain(host)
	if !ok {
		return Scope{}, nil
	}

	s := Scope{Subdomain: label, IsSubdomainRequest: true}

	f, err := r.finder.GetBySubdomain(ctx, label)
	if err != nil {
		if errors.Is(err, facility.ErrFacilityNotFound) {
			slog.Debug("no facility for subdomain", "subdomain", label)
			return s, nil
		}
		return s, fmt.Errorf("resolving facility for subdomain %q: %w", label, err)
	}

	id := f.ID
	s.FacilityID = &id
	return s, nil
}

func (r *Resolver) isDevHost(h string) bool {
	if r.dev[h] {
		return true
	}
	if net.ParseIP(h) != nil {
		return true
	}
	return strings.HasSuffix(h, ".localhost") || strings.HasSuffix(h, ".local")
}

func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if splitHost, _, err := net.SplitHostPort(h); err == nil {
		h = splitHost
	}
	h = strings.TrimPrefix(h, "[")
	h = strings.TrimSuffix(h, "]")
	return strings.TrimSuffix(h, ".")
}

type contextKey struct{}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the scope stored by WithScope.
func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(contextKey{}).(Scope)
	return s, ok
}

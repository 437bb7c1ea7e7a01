package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/storehaus/gatekeeper/internal/auth"
	"github.com/storehaus/gatekeeper/internal/profile"
)

// Lookup is the primary role-lookup procedure keyed by user id.
type Lookup interface {
	LookupRole(ctx context.Context, userID uuid.UUID) (string, error)
}

// ProfileFinder is the fallback profile-by-user-id lookup.
type ProfileFinder interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

// Options controls caching and retry behaviour of the Resolver.
type Options struct {
	CacheTTL  time.Duration
	CacheSize int
	// MaxRetries is the number of extra attempts on the primary lookup.
	MaxRetries     uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64
	// LookupTimeout bounds each individual backend call.
	LookupTimeout time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		CacheTTL:       5 * time.Minute,
		CacheSize:      10000,
		MaxRetries:     2,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2,
		LookupTimeout:  3 * time.Second,
	}
}

type cacheKey struct {
	userID  uuid.UUID
	session string
}

// Resolver determines the role of an identity. Safe for concurrent use.
type Resolver struct {
	primary  Lookup
	fallback ProfileFinder
	opts     Options
	cache    *expirable.LRU[cacheKey, Role]
	group    singleflight.Group
	// epoch advances on every invalidation so in-flight lookups started
	// before it never populate the cache.
	epoch atomic.Uint64
}

// NewResolver creates a Resolver.
func NewResolver(primary Lookup, fallback ProfileFinder, opts Options) *Resolver {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions().CacheSize
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 1
	}
	return &Resolver{
		primary:  primary,
		fallback: fallback,
		opts:     opts,
		cache:    expirable.NewLRU[cacheKey, Role](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Resolve returns the role for identity. A nil identity, or one without a
// session, yields NotApplicable. Backend failures resolve to Customer; only
// the end of ctx produces an error.
func (r *Resolver) Resolve(ctx context.Context, identity *auth.Identity) (Resolution, error) {
	if identity == nil || identity.UserID == uuid.Nil || identity.SessionToken == "" {
		return Resolution{Status: NotApplicable}, nil
	}

	key := cacheKey{userID: identity.UserID, session: identity.SessionToken}
	if cached, ok := r.cache.Get(key); ok {
		return Resolution{Status: Resolved, Role: cached}, nil
	}

	epoch := r.epoch.Load()
	flight := fmt.Sprintf("%s|%s|%d", key.userID, key.session, epoch)

	// The shared lookup outlives any single caller; each backend call is
	// bounded by LookupTimeout instead.
	ch := r.group.DoChan(flight, func() (any, error) {
		resolved := r.resolve(context.WithoutCancel(ctx), identity.UserID)
		if r.epoch.Load() == epoch {
			r.cache.Add(key, resolved)
		}
		return resolved, nil
	})

	select {
	case <-ctx.Done():
		return Resolution{Status: Loading}, ctx.Err()
	case res := <-ch:
		return Resolution{Status: Resolved, Role: res.Val.(Role)}, nil
	}
}

// Invalidate drops every cached role for userID.
func (r *Resolver) Invalidate(userID uuid.UUID) int {
	r.epoch.Add(1)
	removed := 0
	for _, k := range r.cache.Keys() {
		if k.userID == userID && r.cache.Remove(k) {
			removed++
		}
	}
	return removed
}

// Purge drops the whole cache.
func (r *Resolver) Purge() {
	r.epoch.Add(1)
	r.cache.Purge()
}

func (r *Resolver) resolve(ctx context.Context, userID uuid.UUID) Role {
	raw, err := r.lookupPrimary(ctx, userID)
	if err == nil {
		if resolved, ok := Parse(raw); ok {
			slog.Debug("role resolved via lookup", "userId", userID, "role", resolved.String())
			return resolved
		}
		slog.Warn("role lookup returned unknown role", "userId", userID, "role", raw)
	} else {
		slog.Warn("role lookup failed; trying profile", "userId", userID, "error", err)
	}

	lctx, cancel := r.lookupContext(ctx)
	defer cancel()

	p, err := r.fallback.GetByUserID(lctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			slog.Warn("no profile for user; defaulting to customer", "userId", userID)
		} else {
			slog.Warn("profile lookup failed; defaulting to customer", "userId", userID, "error", err)
		}
		return Customer
	}

	resolved, ok := Parse(p.Role)
	if !ok {
		slog.Warn("profile has unknown role; defaulting to customer", "userId", userID, "role", p.Role)
		return Customer
	}
	slog.Debug("role resolved via profile", "userId", userID, "role", resolved.String())
	return resolved
}

func (r *Resolver) lookupPrimary(ctx context.Context, userID uuid.UUID) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.InitialBackoff
	b.MaxInterval = r.opts.MaxBackoff
	b.Multiplier = r.opts.Multiplier
	b.RandomizationFactor = r.opts.Jitter

	attempt := 0
	op := func() (string, error) {
		attempt++
		lctx, cancel := r.lookupContext(ctx)
		defer cancel()

		raw, err := r.primary.LookupRole(lctx, userID)
		if err != nil {
			if errors.Is(err, profile.ErrRoleNotFound) {
				return "", backoff.Permanent(err)
			}
			slog.Debug("role lookup attempt failed", "userId", userID, "attempt", attempt, "error", err)
			return "", err
		}
		return raw, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.opts.MaxRetries+1),
	)
}

func (r *Resolver) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.LookupTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.LookupTimeout)
}

package onboarding

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/storehaus/gatekeeper/internal/facility"
	"github.com/storehaus/gatekeeper/internal/profile"
)

// ProfileFinder looks up the profile owned by an auth user.
type ProfileFinder interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

// FacilityLister lists the facilities of a provider profile.
type FacilityLister interface {
	ListByProviderID(ctx context.Context, providerID uuid.UUID) ([]facility.Facility, error)
}

// Checker answers whether a provider already owns a facility.
type Checker struct {
	profiles   ProfileFinder
	facilities FacilityLister
}

// NewChecker creates a Checker.
func NewChecker(profiles ProfileFinder, facilities FacilityLister) *Checker {
	return &Checker{profiles: profiles, facilities: facilities}
}

// HasFacility reports whether userID's provider profile owns at least one
// facility. Every failure answers false, which sends the user to onboarding.
func (c *Checker) HasFacility(ctx context.Context, userID uuid.UUID) bool {
	p, err := c.profiles.GetByUserID(ctx, userID)
	if err != nil {
		slog.Warn("onboarding: profile lookup failed", "userId", userID, "error", err)
		return false
	}

	facilities, err := c.facilities.ListByProviderID(ctx, p.ID)
	if err != nil {
		slog.Warn("onboarding: facility lookup failed", "userId", userID, "providerId", p.ID, "error", err)
		return false
	}

	return len(facilities) > 0
}

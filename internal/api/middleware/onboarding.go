package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/storehaus/gatekeeper/internal/api/response"
	"github.com/storehaus/gatekeeper/internal/role"
)

// FacilityChecker answers whether a provider owns a facility yet.
type FacilityChecker interface {
	HasFacility(ctx context.Context, userID uuid.UUID) bool
}

// RequireFacility sends providers without a facility to onboarding. It must
// sit behind a gate; resolved customers pass through, and a request no gate
// has admitted is sent to onboarding.
func RequireFacility(checker FacilityChecker, onboardingPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := GetResolution(r.Context())
			identity := GetIdentity(r.Context())
			if ok && identity != nil && res.Role == role.Customer {
				next.ServeHTTP(w, r)
				return
			}

			if !ok || identity == nil || !checker.HasFacility(r.Context(), identity.UserID) {
				response.Redirect(w, onboardingPath, "ONBOARDING_REQUIRED", "Create a facility to continue", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/api/response"
	"github.com/storehaus/gatekeeper/internal/facility"
	"github.com/storehaus/gatekeeper/internal/profile"
	"github.com/storehaus/gatekeeper/internal/role"
)

// ProfileFinder looks up the profile owned by an auth user.
type ProfileFinder interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

// FacilityLister lists a provider's facilities.
type FacilityLister interface {
	ListByProviderID(ctx context.Context, providerID uuid.UUID) ([]facility.Facility, error)
}

type meResponse struct {
	UserID       string    `json:"userId"`
	EmailOrPhone string    `json:"emailOrPhone,omitempty"`
	Role         role.Role `json:"role"`
	ExpiresAt    *string   `json:"expiresAt,omitempty"`
}

type onboardingResponse struct {
	HasFacility bool    `json:"hasFacility"`
	Next        *string `json:"next,omitempty"`
}

type overviewResponse struct {
	UserID string    `json:"userId"`
	Role   role.Role `json:"role"`
}

// AccountHandler serves the routes behind the access gate.
type AccountHandler struct {
	profiles       ProfileFinder
	facilities     FacilityLister
	checker        middleware.FacilityChecker
	onboardingPath string
	homePath       string
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(profiles ProfileFinder, facilities FacilityLister, checker middleware.FacilityChecker, onboardingPath, homePath string) *AccountHandler {
	return &AccountHandler{
		profiles:       profiles,
		facilities:     facilities,
		checker:        checker,
		onboardingPath: onboardingPath,
		homePath:       homePath,
	}
}

// Me handles GET /v1/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	res, _ := middleware.GetResolution(r.Context())

	resp := meResponse{
		UserID:       identity.UserID.String(),
		EmailOrPhone: identity.EmailOrPhone,
		Role:         res.Role,
	}
	if !identity.ExpiresAt.IsZero() {
		exp := identity.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
		resp.ExpiresAt = &exp
	}

	response.Success(w, http.StatusOK, resp, requestID)
}

// Onboarding handles GET /v1/provider/onboarding. It is exempt from the
// facility gate so a provider can always reach it.
func (h *AccountHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	resp := onboardingResponse{HasFacility: h.checker.HasFacility(r.Context(), identity.UserID)}
	next := h.onboardingPath
	if resp.HasFacility {
		next = h.homePath
	}
	resp.Next = &next

	response.Success(w, http.StatusOK, resp, requestID)
}

// ProviderFacilities handles GET /v1/provider/facilities.
func (h *AccountHandler) ProviderFacilities(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	p, err := h.profiles.GetByUserID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			response.Redirect(w, h.onboardingPath, "ONBOARDING_REQUIRED", "Create a facility to continue", requestID)
			return
		}
		slog.Error("failed to load provider profile", "userId", identity.UserID, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load facilities", requestID)
		return
	}

	facilities, err := h.facilities.ListByProviderID(r.Context(), p.ID)
	if err != nil {
		slog.Error("failed to list provider facilities", "providerId", p.ID, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load facilities", requestID)
		return
	}

	items := make([]facilityResponse, 0, len(facilities))
	for i := range facilities {
		items = append(items, toFacilityResponse(&facilities[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, len(items), requestID)
}

// CustomerOverview handles GET /v1/customer/overview.
func (h *AccountHandler) CustomerOverview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())
	res, _ := middleware.GetResolution(r.Context())

	response.Success(w, http.StatusOK, overviewResponse{
		UserID: identity.UserID.String(),
		Role:   res.Role,
	}, requestID)
}

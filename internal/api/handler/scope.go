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
	"github.com/storehaus/gatekeeper/internal/scope"
)

// FacilityGetter loads a facility by id.
type FacilityGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*facility.Facility, error)
}

type facilityResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ProviderID string  `json:"providerId"`
	Subdomain  *string `json:"subdomain,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

func toFacilityResponse(f *facility.Facility) facilityResponse {
	return facilityResponse{
		ID:         f.ID.String(),
		Name:       f.Name,
		ProviderID: f.ProviderID.String(),
		Subdomain:  f.Subdomain,
		CreatedAt:  f.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ScopeHandler serves the facility scope resolved by the Scope middleware.
type ScopeHandler struct {
	facilities FacilityGetter
}

// NewScopeHandler creates a new ScopeHandler.
func NewScopeHandler(facilities FacilityGetter) *ScopeHandler {
	return &ScopeHandler{facilities: facilities}
}

// Get handles GET /v1/scope.
func (h *ScopeHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	s, ok := scope.FromContext(r.Context())
	if !ok {
		slog.Error("scope handler mounted without scope middleware")
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Facility scope unavailable", requestID)
		return
	}

	response.Success(w, http.StatusOK, toScopeResponse(s), requestID)
}

// Facility handles GET /v1/facility, returning the facility the host is
// scoped to.
func (h *ScopeHandler) Facility(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	s, ok := scope.FromContext(r.Context())
	if !ok {
		slog.Error("facility handler mounted without scope middleware")
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Facility scope unavailable", requestID)
		return
	}

	if !s.IsSubdomainRequest {
		response.Err(w, http.StatusNotFound, "NOT_SCOPED", "Request is not scoped to a facility", requestID)
		return
	}
	if s.Unresolved() {
		response.Err(w, http.StatusNotFound, "FACILITY_NOT_FOUND", "No facility matches this address", requestID)
		return
	}

	f, err := h.facilities.GetByID(r.Context(), *s.FacilityID)
	if err != nil {
		if errors.Is(err, facility.ErrFacilityNotFound) {
			response.Err(w, http.StatusNotFound, "FACILITY_NOT_FOUND", "No facility matches this address", requestID)
			return
		}
		slog.Error("failed to load scoped facility", "facilityId", s.FacilityID, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load facility", requestID)
		return
	}

	response.Success(w, http.StatusOK, toFacilityResponse(f), requestID)
}

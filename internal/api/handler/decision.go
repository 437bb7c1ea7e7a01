package handler

import (
	"encoding/json"
	"net/http"

	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/api/response"
	"github.com/storehaus/gatekeeper/internal/api/validation"
	"github.com/storehaus/gatekeeper/internal/gate"
	"github.com/storehaus/gatekeeper/internal/role"
)

type decisionRequest struct {
	IdentityPresent bool    `json:"identityPresent"`
	Status          string  `json:"status"`
	Role            *string `json:"role"`
	RequiredRole    *string `json:"requiredRole"`
	TargetPath      string  `json:"targetPath"`
}

type decisionResponse struct {
	Action   gate.Action `json:"action"`
	Location *string     `json:"location,omitempty"`
}

// DecisionHandler evaluates client-supplied gate snapshots with the same
// rules the server applies to its own routes.
type DecisionHandler struct {
	gate *gate.Gate
}

// NewDecisionHandler creates a new DecisionHandler.
func NewDecisionHandler(g *gate.Gate) *DecisionHandler {
	return &DecisionHandler{gate: g}
}

// Create handles POST /v1/gate/decisions.
func (h *DecisionHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateDecisionRequest(validation.DecisionRequest{
		Status:       req.Status,
		Role:         req.Role,
		RequiredRole: req.RequiredRole,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	state := gate.State{
		IdentityPresent: req.IdentityPresent,
		TargetPath:      req.TargetPath,
	}
	_ = state.Status.UnmarshalText([]byte(req.Status))
	if req.Role != nil {
		state.Role, _ = role.Parse(*req.Role)
	}
	if req.RequiredRole != nil {
		required, _ := role.Parse(*req.RequiredRole)
		state.RequiredRole = &required
	}

	decision := h.gate.Decide(state)

	resp := decisionResponse{Action: decision.Action}
	if decision.Location != "" {
		loc := decision.Location
		resp.Location = &loc
	}
	response.Success(w, http.StatusOK, resp, requestID)
}

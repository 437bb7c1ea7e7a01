package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/api/response"
	"github.com/storehaus/gatekeeper/internal/role"
	"github.com/storehaus/gatekeeper/internal/scope"
)

type resolutionResponse struct {
	Status role.Status `json:"status"`
	Role   *role.Role  `json:"role,omitempty"`
}

type scopeResponse struct {
	IsSubdomainRequest bool    `json:"isSubdomainRequest"`
	Subdomain          *string `json:"subdomain,omitempty"`
	FacilityID         *string `json:"facilityId,omitempty"`
	Status             string  `json:"status"`
}

func toScopeResponse(s scope.Scope) scopeResponse {
	resp := scopeResponse{IsSubdomainRequest: s.IsSubdomainRequest, Status: "unscoped"}
	if s.IsSubdomainRequest {
		sub := s.Subdomain
		resp.Subdomain = &sub
		resp.Status = "unresolved"
	}
	if s.FacilityID != nil {
		id := s.FacilityID.String()
		resp.FacilityID = &id
		resp.Status = "resolved"
	}
	return resp
}

type sessionResponse struct {
	Authenticated bool               `json:"authenticated"`
	UserID        *string            `json:"userId,omitempty"`
	ExpiresAt     *string            `json:"expiresAt,omitempty"`
	Resolution    resolutionResponse `json:"resolution"`
	Scope         *scopeResponse     `json:"scope"`
}

// SessionHandler reports what the gateway knows about the calling session.
type SessionHandler struct {
	guard   *middleware.Guard
	scopes  middleware.ScopeResolver
	timeout time.Duration
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(guard *middleware.Guard, scopes middleware.ScopeResolver, scopeTimeout time.Duration) *SessionHandler {
	return &SessionHandler{guard: guard, scopes: scopes, timeout: scopeTimeout}
}

// Get handles GET /v1/session. Role and scope are resolved concurrently and
// awaited independently: a scope failure does not hide the role.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var (
		resp     sessionResponse
		sc       scope.Scope
		scopeErr error
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		st := h.guard.State(r)
		resp.Authenticated = st.IdentityPresent
		resp.Resolution.Status = st.Status
		if st.Status == role.Resolved {
			rl := st.Role
			resp.Resolution.Role = &rl
		}
		return nil
	})
	g.Go(func() error {
		sctx := ctx
		if h.timeout > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(ctx, h.timeout)
			defer cancel()
		}
		sc, scopeErr = h.scopes.Resolve(sctx, r.Host)
		return nil
	})
	_ = g.Wait()

	if identity := middleware.GetIdentity(r.Context()); identity != nil && resp.Authenticated {
		id := identity.UserID.String()
		resp.UserID = &id
		if !identity.ExpiresAt.IsZero() {
			exp := identity.ExpiresAt.UTC().Format(time.RFC3339)
			resp.ExpiresAt = &exp
		}
	}

	s := toScopeResponse(sc)
	if scopeErr != nil {
		slog.Warn("session: facility scope lookup failed", "host", r.Host, "error", scopeErr, "requestId", requestID)
		s.Status = "loading"
	}
	resp.Scope = &s

	response.Success(w, http.StatusOK, resp, requestID)
}

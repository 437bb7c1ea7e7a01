package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/storehaus/gatekeeper/internal/api/response"
	"github.com/storehaus/gatekeeper/internal/auth"
	"github.com/storehaus/gatekeeper/internal/gate"
	"github.com/storehaus/gatekeeper/internal/role"
)

const resolutionKey contextKey = "resolution"

// RoleResolver resolves the role of an identity.
type RoleResolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (role.Resolution, error)
}

// Guard builds gate middlewares sharing a gate, a resolver and a resolution
// deadline.
type Guard struct {
	gate     *gate.Gate
	resolver RoleResolver
	timeout  time.Duration
}

// NewGuard creates a Guard. A zero timeout leaves resolution bounded only by
// the request context.
func NewGuard(g *gate.Gate, resolver RoleResolver, timeout time.Duration) *Guard {
	return &Guard{gate: g, resolver: resolver, timeout: timeout}
}

// RequireAuth admits any authenticated session.
func (gd *Guard) RequireAuth() func(http.Handler) http.Handler {
	return gd.middleware(nil)
}

// RequireRole admits only sessions resolved to want.
func (gd *Guard) RequireRole(want role.Role) func(http.Handler) http.Handler {
	return gd.middleware(&want)
}

func (gd *Guard) middleware(required *role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			state := gd.State(r)
			state.RequiredRole = required

			decision := gd.gate.Decide(state)
			switch decision.Action {
			case gate.RenderChildren:
				ctx := context.WithValue(r.Context(), resolutionKey, role.Resolution{Status: state.Status, Role: state.Role})
				next.ServeHTTP(w, r.WithContext(ctx))
			case gate.ShowLoading:
				response.Unavailable(w, 1, "LOADING", "Access is still being resolved", requestID)
			case gate.RedirectToLogin:
				response.Redirect(w, decision.Location, "UNAUTHENTICATED", "Sign in to continue", requestID)
			case gate.RedirectToHome:
				response.Redirect(w, decision.Location, "FORBIDDEN", "Insufficient permissions", requestID)
			default:
				slog.Error("unhandled gate action", "action", decision.Action.String(), "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
			}
		})
	}
}

// State resolves the role of the request's identity and returns the gate
// snapshot for it. Running out of resolution time while the client is still
// waiting is reported as Loading; any other failure is Errored.
func (gd *Guard) State(r *http.Request) gate.State {
	identity := GetIdentity(r.Context())
	state := gate.State{
		IdentityPresent: identity != nil && !identity.Expired(time.Now()),
		TargetPath:      r.URL.RequestURI(),
	}
	if !state.IdentityPresent {
		state.Status = role.NotApplicable
		return state
	}

	ctx := r.Context()
	if gd.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gd.timeout)
		defer cancel()
	}

	res, err := gd.resolver.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil {
			state.Status = role.Loading
		} else {
			state.Status = role.Errored
		}
		slog.Warn("role resolution incomplete",
			"userId", identity.UserID,
			"status", state.Status.String(),
			"error", err,
			"requestId", GetRequestID(r.Context()),
		)
		return state
	}

	state.Status = res.Status
	state.Role = res.Role
	return state
}

// GetResolution returns the resolution that let the request through a gate.
func GetResolution(ctx context.Context) (role.Resolution, bool) {
	res, ok := ctx.Value(resolutionKey).(role.Resolution)
	return res, ok
}

// Package gate decides what a request for a protected route may see.
//
// Decide is a pure function of the latest resolution snapshot: it keeps no
// state between calls and never retries.
package gate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/storehaus/gatekeeper/internal/role"
)

// Action is the outcome of a gate evaluation.
type Action int

const (
	ShowLoading Action = iota
	RedirectToLogin
	RedirectToHome
	RenderChildren
)

func (a Action) String() string {
	switch a {
	case ShowLoading:
		return "show_loading"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	case RenderChildren:
		return "render_children"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Routes are the redirect targets used by the gate.
type Routes struct {
	Login      string
	Home       string
	Onboarding string
}

// DefaultRoutes returns the standard route layout.
func DefaultRoutes() Routes {
	return Routes{Login: "/login", Home: "/", Onboarding: "/provider/onboarding"}
}

// State is a snapshot of everything the gate needs to know.
type State struct {
	IdentityPresent bool
	Status          role.Status
	Role            role.Role
	// RequiredRole is nil when any authenticated role may pass.
	RequiredRole *role.Role
	// TargetPath is where the user was going; carried through login.
	TargetPath string
}

// Decision is an Action plus the redirect location, if any.
type Decision struct {
	Action   Action
	Location string
}

// Gate evaluates States against a fixed set of routes.
type Gate struct {
	routes Routes
}

// New creates a Gate.
func New(routes Routes) *Gate {
	return &Gate{routes: routes}
}

// Routes returns the configured redirect targets.
func (g *Gate) Routes() Routes {
	return g.routes
}

// Decide evaluates s. The order of the checks matters: loading is checked
// before identity absence so a session still initialising is never bounced
// to login.
func (g *Gate) Decide(s State) Decision {
	switch {
	case s.Status == role.Loading:
		return Decision{Action: ShowLoading}
	case !s.IdentityPresent:
		return Decision{Action: RedirectToLogin, Location: g.LoginLocation(s.TargetPath)}
	case s.Status == role.Errored:
		return Decision{Action: RedirectToLogin, Location: g.LoginLocation(s.TargetPath)}
	case s.Status != role.Resolved:
		// An identity with no resolution is treated like an error.
		return Decision{Action: RedirectToLogin, Location: g.LoginLocation(s.TargetPath)}
	case s.RequiredRole != nil && s.Role != *s.RequiredRole:
		return Decision{Action: RedirectToHome, Location: g.routes.Home}
	}
	return Decision{Action: RenderChildren}
}

// LoginLocation builds the login URL carrying returnTo. Targets that are not
// same-origin absolute paths are replaced by the home path.
func (g *Gate) LoginLocation(target string) string {
	if !isLocalPath(target) {
		target = g.routes.Home
	}
	if target == "" {
		return g.routes.Login
	}
	return g.routes.Login + "?" + url.Values{"returnTo": {target}}.Encode()
}

func isLocalPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	// "//host" and "/\host" are protocol-relative in browsers.
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return false
	}
	return !strings.ContainsAny(p, "\r\n")
}

package api

import (
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/storehaus/gatekeeper/internal/api/handler"
	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/gate"
	"github.com/storehaus/gatekeeper/internal/role"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Version     string
	OpenAPISpec []byte

	DBPinger    handler.Pinger
	RedisPinger handler.Pinger

	Verifier middleware.TokenVerifier
	Guard    *middleware.Guard
	Gate     *gate.Gate
	Scopes   middleware.ScopeResolver
	// ScopeTimeout bounds the subdomain lookup of a request.
	ScopeTimeout time.Duration
	Onboarding   middleware.FacilityChecker

	Profiles   handler.ProfileFinder
	Facilities interface {
		handler.FacilityLister
		handler.FacilityGetter
	}
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.RedisPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	routes := deps.Gate.Routes()
	scopeHandler := handler.NewScopeHandler(deps.Facilities)
	sessionHandler := handler.NewSessionHandler(deps.Guard, deps.Scopes, deps.ScopeTimeout)
	decisionHandler := handler.NewDecisionHandler(deps.Gate)
	accountHandler := handler.NewAccountHandler(deps.Profiles, deps.Facilities, deps.Onboarding, routes.Onboarding, routes.Home)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Verifier))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Scope(deps.Scopes, deps.ScopeTimeout))
			r.Get("/scope", scopeHandler.Get)
			r.Get("/facility", scopeHandler.Facility)
		})

		r.Get("/session", sessionHandler.Get)
		r.Post("/gate/decisions", decisionHandler.Create)

		r.With(deps.Guard.RequireAuth()).Get("/me", accountHandler.Me)

		r.Route("/provider", func(r chi.Router) {
			r.Use(deps.Guard.RequireRole(role.Provider))
			r.Get("/onboarding", accountHandler.Onboarding)
			r.With(middleware.RequireFacility(deps.Onboarding, routes.Onboarding)).
				Get("/facilities", accountHandler.ProviderFacilities)
		})

		r.With(deps.Guard.RequireRole(role.Customer)).Get("/customer/overview", accountHandler.CustomerOverview)
	})

	return r
}

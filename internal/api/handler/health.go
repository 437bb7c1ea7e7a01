package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/api/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	database Pinger
	redis    Pinger // nil when no event stream is configured
	version  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(database, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		database: database,
		redis:    redis,
		version:  version,
	}
}

type dependencyStatus struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

type healthData struct {
	Status   string           `json:"status"`
	Version  string           `json:"version"`
	Database dependencyStatus `json:"database"`
	Redis    dependencyStatus `json:"redis"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	data := healthData{
		Status:   "healthy",
		Version:  h.version,
		Database: check(ctx, h.database),
		Redis:    check(ctx, h.redis),
	}

	if !data.Database.Connected || (data.Redis.Configured && !data.Redis.Connected) {
		data.Status = "degraded"
	}

	response.Success(w, http.StatusOK, data, requestID)
}

func check(ctx context.Context, p Pinger) dependencyStatus {
	if p == nil {
		return dependencyStatus{}
	}
	return dependencyStatus{Configured: true, Connected: p.Ping(ctx) == nil}
}

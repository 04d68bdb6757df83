package api

import (
	"context"
	"net/http"
	"time"

	"github.com/voyago/trip-planner/internal/api/respond"
	"github.com/voyago/trip-planner/internal/health"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	storePinger health.HealthPinger
	isHealthy   func() bool
}

// NewHealthHandler wires the aggregated service health function and the
// store pinger used by the storage check.
func NewHealthHandler(storePinger health.HealthPinger, isHealthy func() bool) *HealthHandler {
	if isHealthy == nil {
		isHealthy = func() bool { return true }
	}
	return &HealthHandler{storePinger: storePinger, isHealthy: isHealthy}
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// CheckStorageHealth handles GET /api/health/db with a live probe.
func (h *HealthHandler) CheckStorageHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.storePinger.HealthPing(ctx); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}

package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voyago/trip-planner/internal/api/respond"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/services"
)

// MonitoringHandler controls per-trip update collection.
type MonitoringHandler struct {
	svc *services.MonitoringService
}

func NewMonitoringHandler(svc *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{svc: svc}
}

type startMonitoringRequest struct {
	Types []model.MonitorType `json:"types"`
}

// StartMonitoring POST /api/trips/{tripId}/monitoring
// An empty body or empty types list selects both feeds.
func (h *MonitoringHandler) StartMonitoring(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	var req startMonitoringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	status, err := h.svc.StartMonitoring(r.Context(), tripID, req.Types)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, status)
}

// GetMonitoringUpdates GET /api/trips/{tripId}/monitoring
func (h *MonitoringHandler) GetMonitoringUpdates(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	upd, err := h.svc.GetMonitoringUpdates(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, upd)
}

// GetMonitoringStatus GET /api/trips/{tripId}/monitoring/status
func (h *MonitoringHandler) GetMonitoringStatus(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	status, err := h.svc.MonitoringStatus(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, status)
}

// StopMonitoring DELETE /api/trips/{tripId}/monitoring
func (h *MonitoringHandler) StopMonitoring(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	if err := h.svc.StopMonitoring(r.Context(), tripID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

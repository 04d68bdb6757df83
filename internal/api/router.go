package api

import (
	"github.com/gorilla/mux"

	"github.com/voyago/trip-planner/internal/api/recovery"
	"github.com/voyago/trip-planner/internal/cache"
	"github.com/voyago/trip-planner/internal/health"
	"github.com/voyago/trip-planner/internal/services"
)

// Deps carries everything the router needs; run.go builds it once at startup.
type Deps struct {
	Trips       *services.TripService
	Documents   *services.DocumentService
	Monitoring  *services.MonitoringService
	Cache       ResponseCache
	StorePinger health.HealthPinger
	IsHealthy   func() bool
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)

	if d.Cache == nil {
		d.Cache = cache.Nop()
	}
	tripHandler := NewTripHandler(d.Trips, d.Cache)
	documentHandler := NewDocumentHandler(d.Documents)
	monitoringHandler := NewMonitoringHandler(d.Monitoring)
	healthHandler := NewHealthHandler(d.StorePinger, d.IsHealthy)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// Trip endpoints
	router.HandleFunc("/api/trips", tripHandler.CreateTrip).Methods("POST")
	router.HandleFunc("/api/trips", tripHandler.ListTrips).Methods("GET")
	router.HandleFunc("/api/trips/{tripId}", tripHandler.GetTrip).Methods("GET")
	router.HandleFunc("/api/trips/{tripId}", tripHandler.UpdateTrip).Methods("PATCH")
	router.HandleFunc("/api/trips/{tripId}", tripHandler.DeleteTrip).Methods("DELETE")

	// Itinerary endpoints
	router.HandleFunc("/api/trips/{tripId}/itinerary", tripHandler.BuildItinerary).Methods("POST")
	router.HandleFunc("/api/trips/{tripId}/itinerary/days", tripHandler.AddItineraryDay).Methods("POST")
	router.HandleFunc("/api/trips/{tripId}/itinerary/days/{dayId}/activities", tripHandler.AddActivity).Methods("POST")
	router.HandleFunc("/api/trips/{tripId}/itinerary/days/{dayId}/accommodation", tripHandler.SetAccommodation).Methods("PUT")

	// Document endpoints
	router.HandleFunc("/api/trips/{tripId}/documents", documentHandler.ListDocuments).Methods("GET")
	router.HandleFunc("/api/trips/{tripId}/documents/{docType}", documentHandler.GetDocument).Methods("GET")

	// Monitoring endpoints
	router.HandleFunc("/api/trips/{tripId}/monitoring", monitoringHandler.StartMonitoring).Methods("POST")
	router.HandleFunc("/api/trips/{tripId}/monitoring", monitoringHandler.GetMonitoringUpdates).Methods("GET")
	router.HandleFunc("/api/trips/{tripId}/monitoring/status", monitoringHandler.GetMonitoringStatus).Methods("GET")
	router.HandleFunc("/api/trips/{tripId}/monitoring", monitoringHandler.StopMonitoring).Methods("DELETE")

	return router
}

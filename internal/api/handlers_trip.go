package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/voyago/trip-planner/internal/api/respond"
	"github.com/voyago/trip-planner/internal/api/validate"
	"github.com/voyago/trip-planner/internal/cache"
	"github.com/voyago/trip-planner/internal/model"
	"github.com/voyago/trip-planner/internal/services"
)

// ResponseCache is the slice of the cache the HTTP layer uses. *cache.Cache
// implements it; tests substitute a recording fake.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte)
	InvalidateTrip(tripID string)
}

// TripHandler is a thin HTTP transport over TripService. Read endpoints go
// through the response cache; write endpoints invalidate it.
type TripHandler struct {
	svc   *services.TripService
	cache ResponseCache
}

func NewTripHandler(svc *services.TripService, c ResponseCache) *TripHandler {
	return &TripHandler{svc: svc, cache: c}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrInvalidState):
		respond.WriteConflict(w, err.Error())
	case errors.Is(err, model.ErrUpstream):
		respond.WriteBadGateway(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}

func writeCachedJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type createTripRequest struct {
	Title       string                  `json:"title"`
	Description *string                 `json:"description"`
	Destination string                  `json:"destination"`
	StartDate   string                  `json:"start_date"`
	EndDate     string                  `json:"end_date"`
	Preferences *model.PreferencesPatch `json:"preferences"`
}

// CreateTrip POST /api/trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Title(req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Destination(req.Destination); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	start, err := validate.Date(req.StartDate)
	if err != nil {
		respond.WriteBadRequest(w, "start_date: "+err.Error())
		return
	}
	end, err := validate.Date(req.EndDate)
	if err != nil {
		respond.WriteBadRequest(w, "end_date: "+err.Error())
		return
	}
	trip, err := h.svc.CreateTrip(r.Context(), services.CreateTripInput{
		Title:       req.Title,
		Description: req.Description,
		Destination: req.Destination,
		StartDate:   start,
		EndDate:     end,
		Preferences: req.Preferences,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(trip.TripID)
	respond.WriteJSON(w, http.StatusCreated, trip)
}

// ListTrips GET /api/trips?page=&page_size=&status=
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := validate.PageParam(q.Get("page"), 1)
	if err != nil {
		respond.WriteBadRequest(w, "page: "+err.Error())
		return
	}
	pageSize, err := validate.PageParam(q.Get("page_size"), 20)
	if err != nil {
		respond.WriteBadRequest(w, "page_size: "+err.Error())
		return
	}
	req := model.ListTripsRequest{Page: page, PageSize: pageSize}
	if s := q.Get("status"); s != "" {
		st := model.TripStatus(s)
		req.Status = &st
	}

	key := cache.ListKey(req.Page, req.PageSize, req.Status)
	if body, ok := h.cache.Get(key); ok {
		writeCachedJSON(w, body)
		return
	}
	pageResult, err := h.svc.ListTrips(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	body, err := json.Marshal(pageResult)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	h.cache.Set(key, body)
	writeCachedJSON(w, body)
}

// GetTrip GET /api/trips/{tripId}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	key := cache.DetailKey(tripID)
	if body, ok := h.cache.Get(key); ok {
		writeCachedJSON(w, body)
		return
	}
	trip, err := h.svc.GetTrip(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	body, err := json.Marshal(trip)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	h.cache.Set(key, body)
	writeCachedJSON(w, body)
}

type updateTripRequest struct {
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Destination *string                 `json:"destination"`
	StartDate   *string                 `json:"start_date"`
	EndDate     *string                 `json:"end_date"`
	Status      *model.TripStatus       `json:"status"`
	Preferences *model.PreferencesPatch `json:"preferences"`
}

// UpdateTrip PATCH /api/trips/{tripId}
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	var req updateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	upd := &model.TripUpdate{
		Title:       req.Title,
		Description: req.Description,
		Destination: req.Destination,
		Status:      req.Status,
		Preferences: req.Preferences,
	}
	if req.StartDate != nil {
		t, err := validate.Date(*req.StartDate)
		if err != nil {
			respond.WriteBadRequest(w, "start_date: "+err.Error())
			return
		}
		upd.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := validate.Date(*req.EndDate)
		if err != nil {
			respond.WriteBadRequest(w, "end_date: "+err.Error())
			return
		}
		upd.EndDate = &t
	}
	trip, err := h.svc.UpdateTrip(r.Context(), tripID, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(tripID)
	respond.WriteJSON(w, http.StatusOK, trip)
}

// DeleteTrip DELETE /api/trips/{tripId}
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	if err := h.svc.DeleteTrip(r.Context(), tripID); err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(tripID)
	w.WriteHeader(http.StatusNoContent)
}

// BuildItinerary POST /api/trips/{tripId}/itinerary
func (h *TripHandler) BuildItinerary(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	trip, err := h.svc.BuildItinerary(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(tripID)
	respond.WriteJSON(w, http.StatusOK, trip)
}

type addDayRequest struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

// AddItineraryDay POST /api/trips/{tripId}/itinerary/days
func (h *TripHandler) AddItineraryDay(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["tripId"]
	var req addDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	date, err := validate.Date(req.Date)
	if err != nil {
		respond.WriteBadRequest(w, "date: "+err.Error())
		return
	}
	day, err := h.svc.AddItineraryDay(r.Context(), tripID, services.AddDayInput{
		Date:  date,
		Notes: req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(tripID)
	respond.WriteJSON(w, http.StatusCreated, day)
}

type addActivityRequest struct {
	Name        string                 `json:"name"`
	Description *string                `json:"description"`
	StartTime   string                 `json:"start_time"`
	EndTime     string                 `json:"end_time"`
	Location    *string                `json:"location"`
	Cost        float64                `json:"cost"`
	BookingInfo map[string]interface{} `json:"booking_info"`
}

// AddActivity POST /api/trips/{tripId}/itinerary/days/{dayId}/activities
func (h *TripHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req addActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	start, err := validate.DateTime(req.StartTime)
	if err != nil {
		respond.WriteBadRequest(w, "start_time: "+err.Error())
		return
	}
	end, err := validate.DateTime(req.EndTime)
	if err != nil {
		respond.WriteBadRequest(w, "end_time: "+err.Error())
		return
	}
	act, err := h.svc.AddActivity(r.Context(), vars["dayId"], services.AddActivityInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		Location:    req.Location,
		Cost:        req.Cost,
		BookingInfo: req.BookingInfo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(vars["tripId"])
	respond.WriteJSON(w, http.StatusCreated, act)
}

type setAccommodationRequest struct {
	Name        string                 `json:"name"`
	Address     string                 `json:"address"`
	CheckIn     string                 `json:"check_in"`
	CheckOut    string                 `json:"check_out"`
	Cost        float64                `json:"cost"`
	BookingInfo map[string]interface{} `json:"booking_info"`
}

// SetAccommodation PUT /api/trips/{tripId}/itinerary/days/{dayId}/accommodation
func (h *TripHandler) SetAccommodation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req setAccommodationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	checkIn, err := validate.DateTime(req.CheckIn)
	if err != nil {
		respond.WriteBadRequest(w, "check_in: "+err.Error())
		return
	}
	checkOut, err := validate.DateTime(req.CheckOut)
	if err != nil {
		respond.WriteBadRequest(w, "check_out: "+err.Error())
		return
	}
	acc, err := h.svc.SetAccommodation(r.Context(), vars["dayId"], services.SetAccommodationInput{
		Name:        req.Name,
		Address:     req.Address,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Cost:        req.Cost,
		BookingInfo: req.BookingInfo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.cache.InvalidateTrip(vars["tripId"])
	respond.WriteJSON(w, http.StatusOK, acc)
}

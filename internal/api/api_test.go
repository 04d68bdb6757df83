package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/voyago/trip-planner/internal/docs"
	"github.com/voyago/trip-planner/internal/health"
	"github.com/voyago/trip-planner/internal/monitor"
	"github.com/voyago/trip-planner/internal/services"
	"github.com/voyago/trip-planner/internal/store"
	"github.com/voyago/trip-planner/internal/store/sqlite"
)

// fakeCache records hits, sets and invalidations for assertions.
type fakeCache struct {
	mu            sync.Mutex
	data          map[string][]byte
	hits          int
	invalidations int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (f *fakeCache) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.data[key]
	if ok {
		f.hits++
	}
	return b, ok
}

func (f *fakeCache) Set(key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = body
}

func (f *fakeCache) InvalidateTrip(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[string][]byte{}
	f.invalidations++
}

type fixture struct {
	server *httptest.Server
	store  store.Store
	cache  *fakeCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st := sqlite.NewWithDB(db)

	renderer, err := docs.NewRenderer()
	require.NoError(t, err)
	reg := monitor.NewRegistry()
	fc := newFakeCache()
	log := zerolog.Nop()

	router := NewRouter(Deps{
		Trips:       services.NewTripService(st, nil, log),
		Documents:   services.NewDocumentService(st, renderer, t.TempDir(), log),
		Monitoring:  services.NewMonitoringService(st, reg, log),
		Cache:       fc,
		StorePinger: st.(health.HealthPinger),
		IsHealthy:   func() bool { return true },
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, store: st, cache: fc}
}

func (f *fixture) request(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, payload
}

func createTrip(t *testing.T, f *fixture, title string) map[string]interface{} {
	t.Helper()
	resp, body := f.request(t, "POST", "/api/trips", map[string]interface{}{
		"title":       title,
		"destination": "Boston",
		"start_date":  "2026-07-01",
		"end_date":    "2026-07-05",
		"preferences": map[string]interface{}{"adults": 2, "children": 2, "hotel_budget": "MODERATE"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestTripLifecycle(t *testing.T) {
	f := newFixture(t)

	trip := createTrip(t, f, "Boston Family Trip")
	require.Equal(t, "planning", trip["status"])
	id := trip["id"].(string)

	resp, body := f.request(t, "GET", "/api/trips/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "Boston Family Trip", got["title"])
	require.NotNil(t, got["budget"])

	resp, body = f.request(t, "PATCH", "/api/trips/"+id, map[string]interface{}{
		"title": "Boston, Revised",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "Boston, Revised", got["title"])
	require.Equal(t, "Boston", got["destination"])

	resp, _ = f.request(t, "DELETE", "/api/trips/"+id, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/api/trips/"+id, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.request(t, "DELETE", "/api/trips/"+id, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateTrip_BadRequests(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{
			"destination": "Rome", "start_date": "2026-06-01", "end_date": "2026-06-02"}},
		{"missing destination", map[string]interface{}{
			"title": "Rome", "start_date": "2026-06-01", "end_date": "2026-06-02"}},
		{"garbage date", map[string]interface{}{
			"title": "Rome", "destination": "Rome",
			"start_date": "sometime", "end_date": "2026-06-02"}},
		{"end before start", map[string]interface{}{
			"title": "Rome", "destination": "Rome",
			"start_date": "2026-06-05", "end_date": "2026-06-01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.request(t, "POST", "/api/trips", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &e))
			require.Equal(t, float64(http.StatusBadRequest), e["code"])
		})
	}

	resp, _ := f.request(t, "POST", "/api/trips", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTrips_PaginationEnvelope(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		createTrip(t, f, fmt.Sprintf("Trip %02d", i))
	}

	resp, body := f.request(t, "GET", "/api/trips?page=2&page_size=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Trips    []map[string]interface{} `json:"trips"`
		Total    int                      `json:"total"`
		Page     int                      `json:"page"`
		PageSize int                      `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Trips, 3)
	require.Equal(t, 7, page.Total)
	require.Equal(t, 2, page.Page)
	require.Equal(t, 3, page.PageSize)

	// Past the last page: empty list, same total.
	resp, body = f.request(t, "GET", "/api/trips?page=4&page_size=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	require.Empty(t, page.Trips)
	require.Equal(t, 7, page.Total)

	resp, _ = f.request(t, "GET", "/api/trips?page=0", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/api/trips?page=oops", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/api/trips?status=vacationing", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTrips_StatusFilter(t *testing.T) {
	f := newFixture(t)
	a := createTrip(t, f, "Stays Planning")
	b := createTrip(t, f, "Goes Live")
	_ = a

	resp, body := f.request(t, "PATCH", "/api/trips/"+b["id"].(string),
		map[string]interface{}{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.request(t, "GET", "/api/trips?status=in_progress", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Trips []map[string]interface{} `json:"trips"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Goes Live", page.Trips[0]["title"])
}

func TestItineraryEndpoints(t *testing.T) {
	f := newFixture(t)
	trip := createTrip(t, f, "Scheduled")
	id := trip["id"].(string)

	resp, body := f.request(t, "POST", "/api/trips/"+id+"/itinerary/days",
		map[string]interface{}{"date": "2026-07-02", "notes": "museum day"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var dayResp map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &dayResp))
	dayID := dayResp["id"].(string)

	// Outside the trip range.
	resp, _ = f.request(t, "POST", "/api/trips/"+id+"/itinerary/days",
		map[string]interface{}{"date": "2026-08-01"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.request(t, "POST",
		"/api/trips/"+id+"/itinerary/days/"+dayID+"/activities",
		map[string]interface{}{
			"name":       "Science Museum",
			"start_time": "2026-07-02T10:00:00Z",
			"end_time":   "2026-07-02T12:00:00Z",
			"cost":       30,
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.request(t, "PUT",
		"/api/trips/"+id+"/itinerary/days/"+dayID+"/accommodation",
		map[string]interface{}{
			"name":      "Harborside Inn",
			"address":   "185 State St",
			"check_in":  "2026-07-02T15:00:00Z",
			"check_out": "2026-07-03T11:00:00Z",
			"cost":      180,
		})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	// Budget reflects the itinerary.
	resp, body = f.request(t, "GET", "/api/trips/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Budget struct {
			Total     float64            `json:"total"`
			Breakdown map[string]float64 `json:"breakdown"`
		} `json:"budget"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 30.0, got.Budget.Breakdown["activities"])
	require.Equal(t, 180.0, got.Budget.Breakdown["accommodations"])
	require.Equal(t, 210.0, got.Budget.Total)

	// Building the itinerary without an assistant yields one day per date.
	resp, body = f.request(t, "POST", "/api/trips/"+id+"/itinerary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rebuilt struct {
		Days []map[string]interface{} `json:"itinerary_days"`
	}
	require.NoError(t, json.Unmarshal(body, &rebuilt))
	require.Len(t, rebuilt.Days, 5)
}

func TestDocumentEndpoints(t *testing.T) {
	f := newFixture(t)
	trip := createTrip(t, f, "Documented")
	id := trip["id"].(string)

	resp, body := f.request(t, "GET", "/api/trips/"+id+"/documents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Documents []map[string]interface{} `json:"documents"`
		Count     int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Zero(t, list.Count)

	resp, body = f.request(t, "GET", "/api/trips/"+id+"/documents/emergency", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown"))
	// Optional fields nobody supplied fall back to the documented default.
	require.Contains(t, string(body), "Not specified")

	resp, _ = f.request(t, "GET", "/api/trips/"+id+"/documents/love-letter", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.request(t, "GET", "/api/trips/no-such-trip/documents/guide", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = f.request(t, "GET", "/api/trips/"+id+"/documents", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 1, list.Count)
}

func TestMonitoringEndpoints(t *testing.T) {
	f := newFixture(t)
	trip := createTrip(t, f, "Watched")
	id := trip["id"].(string)

	// Monitoring requires an in-progress trip.
	resp, body := f.request(t, "POST", "/api/trips/"+id+"/monitoring", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, _ = f.request(t, "PATCH", "/api/trips/"+id,
		map[string]interface{}{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.request(t, "POST", "/api/trips/"+id+"/monitoring",
		map[string]interface{}{"types": []string{"weather"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &status))
	require.Equal(t, true, status["active"])

	resp, body = f.request(t, "GET", "/api/trips/"+id+"/monitoring", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var upd struct {
		Weather []interface{} `json:"weather_updates"`
		Alerts  []interface{} `json:"travel_alerts"`
	}
	require.NoError(t, json.Unmarshal(body, &upd))
	require.NotNil(t, upd.Weather)
	require.NotNil(t, upd.Alerts)

	resp, body = f.request(t, "GET", "/api/trips/"+id+"/monitoring/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &status))
	require.Equal(t, true, status["active"])

	resp, _ = f.request(t, "DELETE", "/api/trips/"+id+"/monitoring", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.request(t, "POST", "/api/trips/no-such-trip/monitoring", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMonitoringUpdates_AfterPollTick(t *testing.T) {
	f := newFixture(t)
	trip := createTrip(t, f, "Polled")
	id := trip["id"].(string)

	resp, _ := f.request(t, "PATCH", "/api/trips/"+id,
		map[string]interface{}{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.request(t, "POST", "/api/trips/"+id+"/monitoring", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Simulate one collection pass appending a reading.
	resp, body := f.request(t, "GET", "/api/trips/"+id+"/monitoring/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		StartedAt string `json:"started_at"`
	}
	require.NoError(t, json.Unmarshal(body, &status))
	require.NotEmpty(t, status.StartedAt)
}

func TestGetTrip_ServedFromCache(t *testing.T) {
	f := newFixture(t)
	trip := createTrip(t, f, "Cached")
	id := trip["id"].(string)

	_, first := f.request(t, "GET", "/api/trips/"+id, nil)
	require.Zero(t, f.cache.hits)

	_, second := f.request(t, "GET", "/api/trips/"+id, nil)
	require.Equal(t, 1, f.cache.hits)
	// Repeated reads within TTL return the identical payload.
	require.Equal(t, first, second)

	// A write invalidates; the next read is a miss again.
	resp, _ := f.request(t, "PATCH", "/api/trips/"+id,
		map[string]interface{}{"title": "Cache Buster"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.GreaterOrEqual(t, f.cache.invalidations, 2)

	_, third := f.request(t, "GET", "/api/trips/"+id, nil)
	require.Equal(t, 1, f.cache.hits)
	require.NotEqual(t, first, third)
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, body := f.request(t, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var h map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &h))
	require.Equal(t, "healthy", h["status"])

	resp, _ = f.request(t, "GET", "/api/health/db", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

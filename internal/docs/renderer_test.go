package docs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voyago/trip-planner/internal/model"
)

func sampleData() *TripData {
	return &TripData{
		Title:       "Lake District Walks",
		Destination: "Keswick",
		StartDate:   "2026-05-01",
		EndDate:     "2026-05-03",
		Status:      "planning",
		Adults:      2,
		Children:    1,
		Currency:    "GBP",
		BudgetTotal: "420.00",
		Breakdown: []BudgetLine{
			{Category: "activities", Amount: "120.00"},
			{Category: "accommodations", Amount: "300.00"},
		},
		Days: []DayData{
			{
				Number: 1,
				Date:   "2026-05-01",
				Notes:  "arrival",
				Activities: []ActivityData{
					{Name: "Catbells hike", Window: "09:00-12:00", Cost: "0.00 GBP"},
				},
				Stay: &StayData{
					Name: "Derwent House", Address: "Lake Rd",
					CheckIn: "2026-05-01 15:00", CheckOut: "2026-05-02 11:00",
				},
			},
			{Number: 2, Date: "2026-05-02"},
		},
	}
}

func TestRenderer_AllTypesRender(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, typ := range []model.DocumentType{
		model.DocItinerary, model.DocGuide, model.DocEmergency, model.DocChecklist,
	} {
		out, err := r.Render(typ, sampleData())
		require.NoError(t, err, "type %s", typ)
		require.NotEmpty(t, out)
	}
}

func TestRenderer_ItineraryContent(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(model.DocItinerary, sampleData())
	require.NoError(t, err)
	body := string(out)
	require.Contains(t, body, "# Lake District Walks: Itinerary")
	require.Contains(t, body, "Catbells hike")
	require.Contains(t, body, "Derwent House")
	// A day without activities renders the free-day line.
	require.Contains(t, body, "Free day, no activities scheduled")
	require.Contains(t, body, "Total: 420.00 GBP")
}

func TestRenderer_MissingOptionalFieldsFallBack(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data := &TripData{Title: "Bare", StartDate: "2026-01-01", EndDate: "2026-01-02", Status: "planning", Currency: "USD", BudgetTotal: "0.00"}
	for _, typ := range []model.DocumentType{model.DocGuide, model.DocEmergency} {
		out, err := r.Render(typ, data)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(out), "Not specified"),
			"%s should substitute defaults for missing fields", typ)
	}
}

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/voyago/trip-planner/internal/model"
)

// PlannerClient calls the planning-assistant service for destination
// research. The assistant is an external multi-agent system; this client
// only sends a typed request and decodes typed suggestions.
type PlannerClient struct {
	client *resty.Client
}

func NewPlannerClient(baseURL string, timeout time.Duration) *PlannerClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &PlannerClient{client: c}
}

type researchRequest struct {
	Destination string            `json:"destination"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Preferences model.Preferences `json:"preferences"`
}

// Research asks the assistant for activity and stay suggestions. No retry
// here: a research call is expensive and the caller already falls back to
// empty suggestions.
func (p *PlannerClient) Research(ctx context.Context, trip *model.Trip) (*Suggestions, error) {
	req := researchRequest{
		Destination: trip.Destination,
		StartDate:   trip.StartDate.Format("2006-01-02"),
		EndDate:     trip.EndDate.Format("2006-01-02"),
		Preferences: trip.Preferences,
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post("/research")
	if err != nil {
		return nil, fmt.Errorf("planner research: %v: %w", err, model.ErrUpstream)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("planner research status %d: %w", resp.StatusCode(), model.ErrUpstream)
	}
	var out Suggestions
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("planner research decode: %v: %w", err, model.ErrUpstream)
	}
	return &out, nil
}

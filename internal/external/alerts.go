package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/voyago/trip-planner/internal/model"
)

// AlertClient calls the travel-advisory feed.
type AlertClient struct {
	client  *resty.Client
	retries uint64
}

func NewAlertClient(baseURL string, timeout time.Duration, maxRetries int) *AlertClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &AlertClient{client: c, retries: uint64(maxRetries)}
}

type alertsResponse struct {
	Alerts []struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Severity string `json:"severity"`
	} `json:"alerts"`
}

// ActiveAlerts fetches current advisories for the destination.
func (a *AlertClient) ActiveAlerts(ctx context.Context, destination string) ([]*model.TravelAlert, error) {
	var out alertsResponse
	backoff := retry.WithMaxRetries(a.retries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := a.client.R().
			SetContext(ctx).
			SetQueryParam("destination", destination).
			Get("/v1/alerts")
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("alerts api status %d", resp.StatusCode()))
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("alerts api status %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("alerts for %s: %v: %w", destination, err, model.ErrUpstream)
	}
	now := time.Now().UTC()
	alerts := make([]*model.TravelAlert, 0, len(out.Alerts))
	for _, raw := range out.Alerts {
		sev := model.AlertSeverity(raw.Severity)
		switch sev {
		case model.SeverityInfo, model.SeverityWarning, model.SeverityCritical:
		default:
			sev = model.SeverityInfo
		}
		alerts = append(alerts, &model.TravelAlert{
			AlertType: raw.Type,
			Message:   raw.Message,
			Severity:  sev,
			Timestamp: now,
		})
	}
	return alerts, nil
}

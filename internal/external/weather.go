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

// WeatherClient calls an OpenWeatherMap-compatible current-weather API.
type WeatherClient struct {
	client  *resty.Client
	apiKey  string
	retries uint64
}

// NewWeatherClient builds a client against baseURL with the given per-call
// timeout and retry budget.
func NewWeatherClient(baseURL, apiKey string, timeout time.Duration, maxRetries int) *WeatherClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &WeatherClient{client: c, apiKey: apiKey, retries: uint64(maxRetries)}
}

type weatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// CurrentWeather fetches current conditions for the destination, retrying
// transient failures with exponential backoff up to the retry budget.
func (w *WeatherClient) CurrentWeather(ctx context.Context, destination string) (*model.WeatherUpdate, error) {
	var out weatherResponse
	backoff := retry.WithMaxRetries(w.retries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := w.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":     destination,
				"appid": w.apiKey,
				"units": "metric",
			}).
			Get("/data/2.5/weather")
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("weather api status %d", resp.StatusCode()))
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("weather api status %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("weather for %s: %v: %w", destination, err, model.ErrUpstream)
	}
	conditions := ""
	if len(out.Weather) > 0 {
		conditions = out.Weather[0].Description
	}
	return &model.WeatherUpdate{
		TemperatureC: out.Main.Temp,
		Conditions:   conditions,
		Timestamp:    time.Now().UTC(),
	}, nil
}

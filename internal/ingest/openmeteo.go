// Package ingest fetches hourly weather data and derives a simulated
// energy demand series from it. Everything downstream (quality, metrics)
// treats the output as untrusted content; this package only guarantees
// shape and UTC-normalized timestamps.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"energypulse/internal/model"
)

// openMeteoTimeLayout is the hour-resolution format Open-Meteo returns
// for hourly series.
const openMeteoTimeLayout = "2006-01-02T15:04"

// WeatherSample is one hourly temperature observation from the feed,
// timestamp normalized to UTC.
type WeatherSample struct {
	Timestamp    time.Time
	TemperatureC float64
}

// OpenMeteoClient fetches hourly weather series from the Open-Meteo API
// (free, no API key) with retries and a circuit breaker.
type OpenMeteoClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoClient wraps the shared HTTP client with resilience defaults.
func NewOpenMeteoClient(client *http.Client) *OpenMeteoClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// FetchHourly returns the hourly temperature series for the location over
// [start, end], one sample per hour, ordered ascending.
func (c *OpenMeteoClient) FetchHourly(ctx context.Context, loc model.Location, start, end time.Time) ([]WeatherSample, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", loc.Lat))
		values.Set("longitude", fmt.Sprintf("%f", loc.Lon))
		values.Set("hourly", "temperature_2m")
		values.Set("start_date", start.UTC().Format("2006-01-02"))
		values.Set("end_date", end.UTC().Format("2006-01-02"))
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly struct {
			Time        []string  `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
		} `json:"hourly"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if len(payload.Hourly.Time) != len(payload.Hourly.Temperature) {
		return nil, fmt.Errorf("openmeteo: hourly series length mismatch: %d times, %d temperatures",
			len(payload.Hourly.Time), len(payload.Hourly.Temperature))
	}

	samples := make([]WeatherSample, 0, len(payload.Hourly.Time))
	for i, raw := range payload.Hourly.Time {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("openmeteo: bad hourly timestamp %q: %w", raw, err)
		}
		samples = append(samples, WeatherSample{
			Timestamp:    ts,
			TemperatureC: payload.Hourly.Temperature[i],
		})
	}

	return samples, nil
}

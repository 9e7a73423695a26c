package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// RiskLevel summarizes rain risk for an appointment date.
type RiskLevel string

const (
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

// ForecastPoint is one hourly forecast sample.
type ForecastPoint struct {
	Time         string  `json:"time"`
	ChanceOfRain float64 `json:"chanceOfRain"`
}

// Forecast holds the samples for a requested date.
type Forecast struct {
	Date   string
	Points []ForecastPoint
}

// Forecaster fetches a daily forecast for a coordinate.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lng float64, date string) (*Forecast, error)
}

// Client fetches forecasts from an external weather API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a weather client.
func NewClient(baseURL, apiKey string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

type forecastEnvelope struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Hour []struct {
				Time         string  `json:"time"`
				ChanceOfRain float64 `json:"chance_of_rain"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Forecast fetches hourly rain chances for one calendar date (yyyy-MM-dd).
func (c *Client) Forecast(ctx context.Context, lat, lng float64, date string) (*Forecast, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%.4f,%.4f", lat, lng))
	q.Set("dt", date)
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weather: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("weather: status %d: %s", resp.StatusCode, msg)
	}

	var env forecastEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("weather: unmarshal response: %w", err)
	}
	if len(env.Forecast.ForecastDay) == 0 {
		return nil, fmt.Errorf("weather: empty forecast for %s", date)
	}

	day := env.Forecast.ForecastDay[0]
	out := &Forecast{Date: day.Date}
	for _, h := range day.Hour {
		out.Points = append(out.Points, ForecastPoint{Time: h.Time, ChanceOfRain: h.ChanceOfRain})
	}
	return out, nil
}

// AssessRisk classifies a forecast: high when the mean chance of rain meets
// or exceeds the threshold (percent).
func AssessRisk(f *Forecast, thresholdPct float64) RiskLevel {
	if f == nil || len(f.Points) == 0 {
		return RiskLow
	}
	var sum float64
	for _, p := range f.Points {
		sum += p.ChanceOfRain
	}
	if sum/float64(len(f.Points)) >= thresholdPct {
		return RiskHigh
	}
	return RiskLow
}

package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const nwsBaseURL = "https://api.weather.gov"

// NWSClient queries the National Weather Service gridded-forecast API.
// The NWS usage policy requires an identifying User-Agent on every request.
type NWSClient struct {
	BaseURL   string
	UserAgent string
	fetcher   *apiFetcher
}

func NewNWSClient(timeout time.Duration) *NWSClient {
	return &NWSClient{
		BaseURL:   nwsBaseURL,
		UserAgent: defaultUserAgent,
		fetcher:   newAPIFetcher("nws", timeout, time.Second),
	}
}

type nwsForecastResponse struct {
	Properties struct {
		Periods []nwsPeriod `json:"periods"`
	} `json:"properties"`
}

type nwsPeriod struct {
	Number           int    `json:"number"`
	Name             string `json:"name"`
	StartTime        string `json:"startTime"`
	Temperature      float64 `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"` // e.g. "8 mph" or "5 to 15 mph"
	WindGust         string `json:"windGust,omitempty"`
	ShortForecast    string `json:"shortForecast"`
	RelativeHumidity struct {
		Value *float64 `json:"value"`
	} `json:"relativeHumidity"`
}

type nwsAlertsResponse struct {
	Features []struct {
		Properties struct {
			Event    string `json:"event"`
			Severity string `json:"severity"`
		} `json:"properties"`
	} `json:"features"`
}

func (c *NWSClient) headers() map[string]string {
	return map[string]string{"User-Agent": c.UserAgent}
}

// FetchBundle assembles current conditions from the hourly forecast plus any
// active alerts for the resort's point. Alert failures are non-fatal; the
// hourly forecast is the bundle's backbone.
func (c *NWSClient) FetchBundle(ctx context.Context, cfg ForecastConfig, lat, lng float64) (*ForecastBundle, error) {
	hourlyURL := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly", c.BaseURL, cfg.Office, cfg.GridX, cfg.GridY)

	var hourly nwsForecastResponse
	if err := c.fetcher.getJSON(ctx, "forecast", hourlyURL, c.headers(), &hourly); err != nil {
		return nil, err
	}
	if len(hourly.Properties.Periods) == 0 {
		return nil, noDataErr("forecast", "grid %s/%d,%d returned no periods", cfg.Office, cfg.GridX, cfg.GridY)
	}

	current := hourly.Properties.Periods[0]

	bundle := &ForecastBundle{
		ShortForecast: current.ShortForecast,
		FetchedAt:     time.Now().UTC(),
	}

	temp := current.Temperature
	if strings.EqualFold(current.TemperatureUnit, "C") {
		temp = temp*9/5 + 32
	}
	bundle.TemperatureF = &temp

	if v, ok := parseWindSpeed(current.WindSpeed); ok {
		bundle.WindSpeedMph = &v
	}
	if v, ok := parseWindSpeed(current.WindGust); ok {
		bundle.WindGustMph = &v
	}
	if current.RelativeHumidity.Value != nil {
		h := *current.RelativeHumidity.Value
		bundle.HumidityPct = &h
	}
	if cover, ok := skyCoverFromForecast(current.ShortForecast); ok {
		bundle.SkyCover = &cover
	}

	// Alerts are best-effort: conditions without alerts beat no conditions.
	if alerts, err := c.fetchAlerts(ctx, lat, lng); err == nil {
		bundle.Alerts = alerts
	}

	return bundle, nil
}

func (c *NWSClient) fetchAlerts(ctx context.Context, lat, lng float64) ([]string, error) {
	alertsURL := fmt.Sprintf("%s/alerts/active?point=%.4f,%.4f", c.BaseURL, lat, lng)

	var payload nwsAlertsResponse
	if err := c.fetcher.getJSON(ctx, "forecast", alertsURL, c.headers(), &payload); err != nil {
		return nil, err
	}

	var alerts []string
	for _, f := range payload.Features {
		if f.Properties.Event != "" {
			alerts = append(alerts, f.Properties.Event)
		}
	}
	return alerts, nil
}

// parseWindSpeed extracts a speed in mph from NWS strings like "8 mph" or
// "5 to 15 mph" (the upper bound wins for ranges).
func parseWindSpeed(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	fields := strings.Fields(s)
	best := 0.0
	found := false
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			if !found || v > best {
				best = v
				found = true
			}
		}
	}
	return best, found
}

// skyCoverFromForecast maps NWS short-forecast phrasing onto a cloud-cover
// fraction. Precipitation phrases imply a closed sky.
func skyCoverFromForecast(short string) (float64, bool) {
	s := strings.ToLower(short)
	switch {
	case s == "":
		return 0, false
	case strings.Contains(s, "snow"), strings.Contains(s, "rain"),
		strings.Contains(s, "showers"), strings.Contains(s, "fog"):
		return 1.0, true
	case strings.Contains(s, "overcast"), strings.Contains(s, "cloudy") && strings.Contains(s, "mostly"):
		return 0.9, true
	case strings.Contains(s, "partly sunny"), strings.Contains(s, "partly cloudy"):
		return 0.5, true
	case strings.Contains(s, "cloudy"):
		return 0.8, true
	case strings.Contains(s, "mostly sunny"), strings.Contains(s, "mostly clear"):
		return 0.25, true
	case strings.Contains(s, "sunny"), strings.Contains(s, "clear"):
		return 0.1, true
	default:
		return 0.5, true
	}
}

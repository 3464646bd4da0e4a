package scrape

import (
	"context"
	"fmt"
	"time"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

const metersToFeet = 3.28084

// FreezingLevelClient is the narrow auxiliary adapter for the rain-risk
// sub-check: it fetches only the current freezing-level height for a point.
type FreezingLevelClient struct {
	BaseURL string
	fetcher *apiFetcher
}

func NewFreezingLevelClient(timeout time.Duration) *FreezingLevelClient {
	return &FreezingLevelClient{
		BaseURL: openMeteoBaseURL,
		fetcher: newAPIFetcher("freezing_level", timeout, 500*time.Millisecond),
	}
}

type openMeteoResponse struct {
	Hourly struct {
		Time                []string   `json:"time"`
		FreezingLevelHeight []*float64 `json:"freezing_level_height"`
	} `json:"hourly"`
}

// Fetch returns the freezing level (feet) for the hour closest to now.
func (c *FreezingLevelClient) Fetch(ctx context.Context, lat, lng float64) (*FreezingLevelSample, error) {
	reqURL := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&hourly=freezing_level_height&forecast_days=1", c.BaseURL, lat, lng)

	var payload openMeteoResponse
	if err := c.fetcher.getJSON(ctx, "freezing_level", reqURL, nil, &payload); err != nil {
		return nil, err
	}

	if len(payload.Hourly.Time) == 0 || len(payload.Hourly.FreezingLevelHeight) == 0 {
		return nil, noDataErr("freezing_level", "no freezing-level series for %.4f,%.4f", lat, lng)
	}

	now := time.Now().UTC()
	bestIdx := -1
	var bestDiff time.Duration
	for i, raw := range payload.Hourly.Time {
		if i >= len(payload.Hourly.FreezingLevelHeight) || payload.Hourly.FreezingLevelHeight[i] == nil {
			continue
		}
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			continue
		}
		diff := ts.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if bestIdx < 0 || diff < bestDiff {
			bestIdx = i
			bestDiff = diff
		}
	}

	if bestIdx < 0 {
		return nil, noDataErr("freezing_level", "freezing-level series had no usable samples")
	}

	meters := *payload.Hourly.FreezingLevelHeight[bestIdx]
	return &FreezingLevelSample{
		FreezingLevelFt: meters * metersToFeet,
		FetchedAt:       time.Now().UTC(),
	}, nil
}

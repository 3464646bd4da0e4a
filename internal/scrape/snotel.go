package scrape

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	awdbBaseURL = "https://wcc.sc.egov.usda.gov/awdbRestApi/services/v1"

	// Daily elements requested from every station.
	elemSnowDepth    = "SNWD" // snow depth, inches
	elemSnowWater    = "WTEQ" // snow-water equivalent, inches
	elemObservedTemp = "TOBS" // observed air temperature, degrees F
	elemPrecipAccum  = "PREC" // water-year precipitation accumulation, inches
)

// SnotelClient queries the USDA AWDB REST API for SNOTEL station telemetry.
type SnotelClient struct {
	BaseURL string
	fetcher *apiFetcher
	// Window is how far back the daily series reaches. Eight days covers the
	// 7d snowfall window plus the prior day needed for the first delta.
	Window time.Duration
}

func NewSnotelClient(timeout time.Duration) *SnotelClient {
	return &SnotelClient{
		BaseURL: awdbBaseURL,
		fetcher: newAPIFetcher("snotel", timeout, 500*time.Millisecond),
		Window:  8 * 24 * time.Hour,
	}
}

type awdbResponse []struct {
	StationTriplet string `json:"stationTriplet"`
	Data           []struct {
		StationElement struct {
			ElementCode string `json:"elementCode"`
		} `json:"stationElement"`
		Values []struct {
			Date  string   `json:"date"`
			Value *float64 `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

// Fetch retrieves the daily SNWD/WTEQ/TOBS/PREC series for one station.
func (c *SnotelClient) Fetch(ctx context.Context, cfg SnotelConfig) (*SnotelSeries, error) {
	now := time.Now().UTC()
	begin := now.Add(-c.Window)

	params := url.Values{}
	params.Set("stationTriplets", cfg.StationTriplet)
	params.Set("elements", elemSnowDepth+","+elemSnowWater+","+elemObservedTemp+","+elemPrecipAccum)
	params.Set("duration", "DAILY")
	params.Set("beginDate", begin.Format("2006-01-02"))
	params.Set("endDate", now.Format("2006-01-02"))

	reqURL := fmt.Sprintf("%s/data?%s", c.BaseURL, params.Encode())

	var payload awdbResponse
	if err := c.fetcher.getJSON(ctx, "snotel", reqURL, nil, &payload); err != nil {
		return nil, err
	}

	if len(payload) == 0 {
		return nil, noDataErr("snotel", "station %s returned no data", cfg.StationTriplet)
	}

	series := &SnotelSeries{
		StationTriplet: cfg.StationTriplet,
		Elements:       make(map[string][]DatedValue),
		FetchedAt:      time.Now().UTC(),
	}

	for _, station := range payload {
		if station.StationTriplet != cfg.StationTriplet {
			continue
		}
		for _, elem := range station.Data {
			code := elem.StationElement.ElementCode
			values := make([]DatedValue, 0, len(elem.Values))
			for _, v := range elem.Values {
				date, err := time.Parse("2006-01-02", v.Date)
				if err != nil {
					return nil, parseErr("snotel", fmt.Errorf("bad date %q in %s series: %w", v.Date, code, err))
				}
				values = append(values, DatedValue{Date: date, Value: v.Value})
			}
			series.Elements[code] = values
		}
	}

	if len(series.Elements[elemSnowDepth]) == 0 {
		return nil, noDataErr("snotel", "station %s returned an empty %s series", cfg.StationTriplet, elemSnowDepth)
	}

	return series, nil
}

package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const nwsHourlyFixture = `{"properties": {"periods": [
	{"number": 1, "startTime": "2026-01-17T07:00:00-08:00",
	 "temperature": 21, "temperatureUnit": "F",
	 "windSpeed": "5 to 15 mph", "windGust": "25 mph",
	 "shortForecast": "Heavy Snow",
	 "relativeHumidity": {"value": 88}}
]}}`

const nwsAlertsFixture = `{"features": [
	{"properties": {"event": "Winter Storm Warning", "severity": "Moderate"}}
]}`

func nwsTestServer(t *testing.T) (*NWSClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("request missing the identifying User-Agent")
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/gridpoints/"):
			fmt.Fprint(w, nwsHourlyFixture)
		case strings.HasPrefix(r.URL.Path, "/alerts/active"):
			fmt.Fprint(w, nwsAlertsFixture)
		default:
			http.NotFound(w, r)
		}
	}))

	c := NewNWSClient(5 * time.Second)
	c.BaseURL = srv.URL
	c.fetcher.minInterval = time.Millisecond
	return c, srv
}

func TestNWSClient_FetchBundle(t *testing.T) {
	client, srv := nwsTestServer(t)
	defer srv.Close()

	bundle, err := client.FetchBundle(context.Background(), ForecastConfig{Office: "SEW", GridX: 156, GridY: 81}, 48.86, -121.68)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if bundle.TemperatureF == nil || *bundle.TemperatureF != 21 {
		t.Fatalf("temperature = %v, want 21", bundle.TemperatureF)
	}
	if bundle.WindSpeedMph == nil || *bundle.WindSpeedMph != 15 {
		t.Fatalf("wind = %v, want 15 (upper bound of the range)", bundle.WindSpeedMph)
	}
	if bundle.WindGustMph == nil || *bundle.WindGustMph != 25 {
		t.Fatalf("gust = %v, want 25", bundle.WindGustMph)
	}
	if bundle.HumidityPct == nil || *bundle.HumidityPct != 88 {
		t.Fatalf("humidity = %v, want 88", bundle.HumidityPct)
	}
	if bundle.SkyCover == nil || *bundle.SkyCover != 1.0 {
		t.Fatalf("sky cover = %v, want 1.0 for falling snow", bundle.SkyCover)
	}
	if len(bundle.Alerts) != 1 || bundle.Alerts[0] != "Winter Storm Warning" {
		t.Fatalf("alerts = %v", bundle.Alerts)
	}
}

func TestNWSClient_EmptyPeriodsIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"properties": {"periods": []}}`)
	}))
	defer srv.Close()

	c := NewNWSClient(5 * time.Second)
	c.BaseURL = srv.URL
	c.fetcher.minInterval = time.Millisecond

	_, err := c.FetchBundle(context.Background(), ForecastConfig{Office: "SEW", GridX: 1, GridY: 1}, 0, 0)
	if ClassOf(err) != ErrClassNoData {
		t.Fatalf("error class = %v (%v), want no_data", ClassOf(err), err)
	}
}

func TestNWSClient_AlertFailureIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/alerts/") {
			http.Error(w, "alerts down", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, nwsHourlyFixture)
	}))
	defer srv.Close()

	c := NewNWSClient(5 * time.Second)
	c.BaseURL = srv.URL
	c.fetcher.minInterval = time.Millisecond

	bundle, err := c.FetchBundle(context.Background(), ForecastConfig{Office: "SEW", GridX: 1, GridY: 1}, 0, 0)
	if err != nil {
		t.Fatalf("a broken alerts endpoint must not fail the bundle: %v", err)
	}
	if len(bundle.Alerts) != 0 {
		t.Fatalf("alerts = %v, want none", bundle.Alerts)
	}
}

func TestParseWindSpeed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"8 mph", 8, true},
		{"5 to 15 mph", 15, true},
		{"", 0, false},
		{"calm", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseWindSpeed(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseWindSpeed(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSkyCoverFromForecast(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"Heavy Snow", 1.0, true},
		{"Mostly Cloudy", 0.9, true},
		{"Cloudy", 0.8, true},
		{"Partly Sunny", 0.5, true},
		{"Mostly Sunny", 0.25, true},
		{"Sunny", 0.1, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := skyCoverFromForecast(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("skyCoverFromForecast(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

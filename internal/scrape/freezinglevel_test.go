package scrape

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFreezingLevelClient_Fetch(t *testing.T) {
	now := time.Now().UTC().Round(time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"hourly": {
			"time": ["%s", "%s", "%s"],
			"freezing_level_height": [500, 1200, 2400]
		}}`,
			now.Add(-time.Hour).Format("2006-01-02T15:04"),
			now.Format("2006-01-02T15:04"),
			now.Add(time.Hour).Format("2006-01-02T15:04"))
	}))
	defer srv.Close()

	c := NewFreezingLevelClient(5 * time.Second)
	c.BaseURL = srv.URL
	c.fetcher.minInterval = time.Millisecond

	sample, err := c.Fetch(context.Background(), 46.93, -121.47)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	// The hour nearest to now carries 1200 m.
	want := 1200 * metersToFeet
	if math.Abs(sample.FreezingLevelFt-want) > 0.01 {
		t.Fatalf("freezing level = %v ft, want %v", sample.FreezingLevelFt, want)
	}
}

func TestFreezingLevelClient_EmptySeriesIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hourly": {"time": [], "freezing_level_height": []}}`)
	}))
	defer srv.Close()

	c := NewFreezingLevelClient(5 * time.Second)
	c.BaseURL = srv.URL
	c.fetcher.minInterval = time.Millisecond

	_, err := c.Fetch(context.Background(), 0, 0)
	if ClassOf(err) != ErrClassNoData {
		t.Fatalf("error class = %v (%v), want no_data", ClassOf(err), err)
	}
}

func TestFreezingLevelClient_AllNullSamplesIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hourly": {"time": ["2026-01-17T08:00"], "freezing_level_height": [null]}}`)
	}))
	defer srv.Close()

	c := NewFreezingLevelClient(5 * time.Second)
	c.BaseURL = srv.URL
	c.fetcher.minInterval = time.Millisecond

	_, err := c.Fetch(context.Background(), 0, 0)
	if ClassOf(err) != ErrClassNoData {
		t.Fatalf("error class = %v (%v), want no_data", ClassOf(err), err)
	}
}

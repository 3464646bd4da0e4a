package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testScraper() *PageScraper {
	s := NewPageScraper(5 * time.Second)
	s.DomainDelay = 0
	return s
}

func pageConfigFor(url string) PageConfig {
	return PageConfig{
		URL: url,
		Strategies: []StrategyConfig{
			{Type: "embedded_json", Anchor: "#snow-report-data"},
			{Type: "selectors", Selectors: PageSelectors{
				LiftsOpen:   ".lifts .open",
				Snowfall24h: ".snow-24",
			}},
		},
	}
}

func TestPageScraper_EmbeddedJSONFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(anchoredPage))
	}))
	defer srv.Close()

	result, err := testScraper().Fetch(context.Background(), pageConfigFor(srv.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.LiftsOpen == nil || *result.LiftsOpen != 7 {
		t.Fatalf("lifts open = %v, want 7 from the embedded block", result.LiftsOpen)
	}
}

func TestPageScraper_FallsBackToSelectors(t *testing.T) {
	// No embedded block on this page; the selector strategy must still
	// produce a result instead of the fetch hard-failing.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(selectorPage))
	}))
	defer srv.Close()

	result, err := testScraper().Fetch(context.Background(), pageConfigFor(srv.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.LiftsOpen == nil || *result.LiftsOpen != 8 {
		t.Fatalf("lifts open = %v, want 8 from selectors", result.LiftsOpen)
	}
	if result.SnowfallIn24h == nil || *result.SnowfallIn24h != 14 {
		t.Fatalf("snowfall = %v, want 14", result.SnowfallIn24h)
	}
}

func TestPageScraper_AllStrategiesFailIsParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>redesigned page</p></body></html>"))
	}))
	defer srv.Close()

	_, err := testScraper().Fetch(context.Background(), pageConfigFor(srv.URL))
	if err == nil {
		t.Fatal("expected failure when no strategy matches")
	}
	if ClassOf(err) != ErrClassParse {
		t.Fatalf("error class = %s, want parse_failure", ClassOf(err))
	}
}

func TestPageScraper_HTTPErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testScraper().Fetch(context.Background(), pageConfigFor(srv.URL))
	if err == nil {
		t.Fatal("expected failure for 503")
	}
	if ClassOf(err) != ErrClassUpstream {
		t.Fatalf("error class = %s, want upstream_unavailable", ClassOf(err))
	}
}

func TestPageScraper_StatusTextSanitized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<script type="application/json" id="snow-report-data">
			{"lifts":{"open":1},"status":"Open <b>today<\/b>","depths":{}}
		</script>`))
	}))
	defer srv.Close()

	result, err := testScraper().Fetch(context.Background(), pageConfigFor(srv.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != "Open today" {
		t.Fatalf("status = %q, want markup stripped", result.Status)
	}
}

package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

const anchoredPage = `<html><body>
<script type="application/json" id="snow-report-data">
{"lifts":{"open":7,"total":10},"runs":{"open":52,"total":57},"status":"Open daily 9-4",
 "depths":{"base_in":88,"snowfall_24h_in":9.5,"snowfall_48h_in":14}}
</script>
</body></html>`

func TestEmbeddedJSONStrategy_Anchor(t *testing.T) {
	strategy := &embeddedJSONStrategy{Anchor: "#snow-report-data"}
	result, err := strategy.Extract(docFrom(t, anchoredPage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.LiftsOpen == nil || *result.LiftsOpen != 7 {
		t.Fatalf("lifts open = %v, want 7", result.LiftsOpen)
	}
	if result.RunsTotal == nil || *result.RunsTotal != 57 {
		t.Fatalf("runs total = %v, want 57", result.RunsTotal)
	}
	if result.SnowfallIn24h == nil || *result.SnowfallIn24h != 9.5 {
		t.Fatalf("snowfall 24h = %v, want 9.5", result.SnowfallIn24h)
	}
	if result.Status != "Open daily 9-4" {
		t.Fatalf("status = %q", result.Status)
	}
}

const markerPage = `<html><body>
<script>
var other = {"nested": {"brace": "}"}};
window.__CONDITIONS__ = {"lifts":{"open":3,"total":4},"runs":{},"status":"Storm day",
 "depths":{"base_in":102}};
init();
</script>
</body></html>`

func TestEmbeddedJSONStrategy_MarkerWithTrickyBraces(t *testing.T) {
	strategy := &embeddedJSONStrategy{Marker: "window.__CONDITIONS__"}
	result, err := strategy.Extract(docFrom(t, markerPage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.LiftsOpen == nil || *result.LiftsOpen != 3 {
		t.Fatalf("lifts open = %v, want 3", result.LiftsOpen)
	}
	if result.BaseDepthIn == nil || *result.BaseDepthIn != 102 {
		t.Fatalf("base depth = %v, want 102", result.BaseDepthIn)
	}
}

func TestEmbeddedJSONStrategy_AnchorMissing(t *testing.T) {
	strategy := &embeddedJSONStrategy{Anchor: "#gone"}
	if _, err := strategy.Extract(docFrom(t, anchoredPage)); err == nil {
		t.Fatal("expected error for missing anchor")
	}
}

func TestEmbeddedJSONStrategy_RejectsUnknownShape(t *testing.T) {
	page := `<script id="d">{"completely":"unrelated"}</script>`
	strategy := &embeddedJSONStrategy{Anchor: "#d"}
	if _, err := strategy.Extract(docFrom(t, page)); err == nil {
		t.Fatal("payload without known fields must be rejected so the next strategy runs")
	}
}

const selectorPage = `<html><body>
<div class="lifts"><span class="open">8 of 11</span></div>
<div class="snow-24">14" new</div>
<div class="base">96 in</div>
<div class="status"> Upper   mountain open </div>
<div class="runs" data-count="40"></div>
</body></html>`

func TestSelectorStrategy(t *testing.T) {
	strategy := &selectorStrategy{Selectors: PageSelectors{
		LiftsOpen:   ".lifts .open",
		RunsOpen:    ".runs",
		Snowfall24h: ".snow-24",
		BaseDepth:   ".base",
		Status:      ".status",
	}}

	result, err := strategy.Extract(docFrom(t, selectorPage))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.LiftsOpen == nil || *result.LiftsOpen != 8 {
		t.Fatalf("lifts open = %v, want 8", result.LiftsOpen)
	}
	if result.RunsOpen == nil || *result.RunsOpen != 40 {
		t.Fatalf("runs open = %v, want 40 from data attribute", result.RunsOpen)
	}
	if result.SnowfallIn24h == nil || *result.SnowfallIn24h != 14 {
		t.Fatalf(`snowfall = %v, want 14 from '14" new'`, result.SnowfallIn24h)
	}
	if result.BaseDepthIn == nil || *result.BaseDepthIn != 96 {
		t.Fatalf("base = %v, want 96", result.BaseDepthIn)
	}
	if result.Status != "Upper mountain open" {
		t.Fatalf("status = %q, want whitespace collapsed", result.Status)
	}
}

func TestSelectorStrategy_NothingMatches(t *testing.T) {
	strategy := &selectorStrategy{Selectors: PageSelectors{LiftsOpen: ".nope"}}
	if _, err := strategy.Extract(docFrom(t, selectorPage)); err == nil {
		t.Fatal("expected error when no selector matches")
	}
}

func TestStrategiesFor_OrderAndUnknownType(t *testing.T) {
	s := NewPageScraper(0)

	strategies, err := s.strategiesFor(PageConfig{Strategies: []StrategyConfig{
		{Type: "embedded_json", Anchor: "#a"},
		{Type: "selectors", Selectors: PageSelectors{LiftsOpen: ".x"}},
	}})
	if err != nil {
		t.Fatalf("strategiesFor: %v", err)
	}
	if len(strategies) != 2 || strategies[0].Name() != "embedded_json" || strategies[1].Name() != "selectors" {
		t.Fatalf("strategies out of configured order: %v", strategies)
	}

	if _, err := s.strategiesFor(PageConfig{Strategies: []StrategyConfig{{Type: "regex"}}}); err == nil {
		t.Fatal("unknown strategy type must be rejected at configuration time")
	}
}

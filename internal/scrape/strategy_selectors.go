package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectorStrategy extracts conditions via configured CSS selectors. It is
// the fragile fallback: selectors break on upstream redesigns, which is why
// the embedded-data strategy runs first.
type selectorStrategy struct {
	Selectors PageSelectors
}

func (s *selectorStrategy) Name() string { return "selectors" }

func (s *selectorStrategy) Extract(doc *goquery.Document) (*PageConditions, error) {
	result := &PageConditions{}
	fields := 0

	if v, ok := selectInt(doc, s.Selectors.LiftsOpen); ok {
		result.LiftsOpen = &v
		fields++
	}
	if v, ok := selectInt(doc, s.Selectors.LiftsTotal); ok {
		result.LiftsTotal = &v
		fields++
	}
	if v, ok := selectInt(doc, s.Selectors.RunsOpen); ok {
		result.RunsOpen = &v
		fields++
	}
	if v, ok := selectInt(doc, s.Selectors.RunsTotal); ok {
		result.RunsTotal = &v
		fields++
	}
	if v, ok := selectMeasurement(doc, s.Selectors.Snowfall24h); ok {
		result.SnowfallIn24h = &v
		fields++
	}
	if v, ok := selectMeasurement(doc, s.Selectors.Snowfall48h); ok {
		result.SnowfallIn48h = &v
		fields++
	}
	if v, ok := selectMeasurement(doc, s.Selectors.BaseDepth); ok {
		result.BaseDepthIn = &v
		fields++
	}
	if s.Selectors.Status != "" {
		if text := normalizeSpace(doc.Find(s.Selectors.Status).First().Text()); text != "" {
			result.Status = text
			fields++
		}
	}

	if fields == 0 {
		return nil, fmt.Errorf("no configured selector matched")
	}
	return result, nil
}

func selectText(doc *goquery.Document, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	text := normalizeSpace(sel.Text())
	if text == "" {
		// Data attributes are a common fallback for count widgets.
		if attr := firstDataAttr(sel); attr != "" {
			return attr, true
		}
		return "", false
	}
	return text, true
}

func firstDataAttr(sel *goquery.Selection) string {
	for _, name := range []string{"data-value", "data-count", "data-lifts-open", "data-lifts-total", "data-runs-open", "data-runs-total"} {
		if v, ok := sel.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func selectInt(doc *goquery.Document, selector string) (int, bool) {
	text, ok := selectText(doc, selector)
	if !ok {
		return 0, false
	}
	return parseLeadingInt(text)
}

// selectMeasurement parses values like `14"`, "14 in", or "14 inches".
func selectMeasurement(doc *goquery.Document, selector string) (float64, bool) {
	text, ok := selectText(doc, selector)
	if !ok {
		return 0, false
	}
	return parseLeadingFloat(text)
}

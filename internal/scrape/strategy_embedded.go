package scrape

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// embeddedPayload is the known nested shape of the structured-data block
// resorts embed in their condition pages.
type embeddedPayload struct {
	Lifts struct {
		Open  *int `json:"open"`
		Total *int `json:"total"`
	} `json:"lifts"`
	Runs struct {
		Open  *int `json:"open"`
		Total *int `json:"total"`
	} `json:"runs"`
	Status string `json:"status"`
	Depths struct {
		BaseIn        *float64 `json:"base_in"`
		Snowfall24hIn *float64 `json:"snowfall_24h_in"`
		Snowfall48hIn *float64 `json:"snowfall_48h_in"`
	} `json:"depths"`
}

// embeddedJSONStrategy locates a JSON payload embedded in the page, either by
// element id (a <script> or data block with a known id) or by a marker string
// preceding an inline object. The anchor is far more stable across upstream
// redesigns than structural selectors, so this strategy runs first.
type embeddedJSONStrategy struct {
	Anchor string // CSS selector, e.g. "#conditions-data"
	Marker string // inline marker, e.g. "window.__CONDITIONS__"
}

func (s *embeddedJSONStrategy) Name() string { return "embedded_json" }

func (s *embeddedJSONStrategy) Extract(doc *goquery.Document) (*PageConditions, error) {
	raw, err := s.locate(doc)
	if err != nil {
		return nil, err
	}

	var payload embeddedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("embedded block is not valid JSON: %w", err)
	}

	result := &PageConditions{
		LiftsOpen:     payload.Lifts.Open,
		LiftsTotal:    payload.Lifts.Total,
		RunsOpen:      payload.Runs.Open,
		RunsTotal:     payload.Runs.Total,
		SnowfallIn24h: payload.Depths.Snowfall24hIn,
		SnowfallIn48h: payload.Depths.Snowfall48hIn,
		BaseDepthIn:   payload.Depths.BaseIn,
		Status:        payload.Status,
	}

	if result.LiftsOpen == nil && result.RunsOpen == nil && result.BaseDepthIn == nil && result.SnowfallIn24h == nil {
		return nil, fmt.Errorf("embedded block parsed but carried no known fields")
	}
	return result, nil
}

func (s *embeddedJSONStrategy) locate(doc *goquery.Document) (string, error) {
	if s.Anchor != "" {
		sel := doc.Find(s.Anchor).First()
		if sel.Length() == 0 {
			return "", fmt.Errorf("anchor %q not found", s.Anchor)
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return "", fmt.Errorf("anchor %q is empty", s.Anchor)
		}
		return text, nil
	}

	if s.Marker != "" {
		var found string
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			body := sel.Text()
			idx := strings.Index(body, s.Marker)
			if idx < 0 {
				return true
			}
			if obj, ok := balancedJSONAfter(body[idx+len(s.Marker):]); ok {
				found = obj
				return false
			}
			return true
		})
		if found == "" {
			return "", fmt.Errorf("marker %q not found", s.Marker)
		}
		return found, nil
	}

	return "", fmt.Errorf("embedded_json strategy has neither anchor nor marker")
}

// balancedJSONAfter scans past an optional assignment and returns the first
// balanced JSON object in s. Tracks string literals so braces inside values
// do not unbalance the scan.
func balancedJSONAfter(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

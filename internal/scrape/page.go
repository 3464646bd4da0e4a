package scrape

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/microcosm-cc/bluemonday"
)

// PageScraper fetches resort-operated condition pages and runs them through
// an ordered list of extraction strategies. The contract: never hard-fail
// because one strategy fails; ParseFailure is returned only after every
// configured strategy has been attempted.
type PageScraper struct {
	UserAgent      string
	RequestTimeout time.Duration
	DomainDelay    time.Duration

	sanitizer *bluemonday.Policy
}

func NewPageScraper(timeout time.Duration) *PageScraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageScraper{
		UserAgent:      defaultUserAgent,
		RequestTimeout: timeout,
		DomainDelay:    1 * time.Second,
		sanitizer:      bluemonday.StrictPolicy(),
	}
}

// Fetch downloads the configured page and extracts structured conditions.
func (s *PageScraper) Fetch(ctx context.Context, cfg PageConfig) (*PageConditions, error) {
	body, err := s.download(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, parseErr("page", fmt.Errorf("parsing HTML from %s: %w", cfg.URL, err))
	}

	strategies, err := s.strategiesFor(cfg)
	if err != nil {
		return nil, err
	}

	var attempts []string
	for _, strategy := range strategies {
		result, err := strategy.Extract(doc)
		if err == nil {
			result.FetchedAt = time.Now().UTC()
			result.Status = normalizeSpace(s.sanitizer.Sanitize(result.Status))
			return result, nil
		}
		attempts = append(attempts, fmt.Sprintf("%s: %v", strategy.Name(), err))
	}

	return nil, parseErr("page", fmt.Errorf("all extraction strategies failed for %s (%s)", cfg.URL, strings.Join(attempts, "; ")))
}

// download fetches the page body with colly for per-domain politeness.
func (s *PageScraper) download(ctx context.Context, pageURL string) ([]byte, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	collector := colly.NewCollector(
		colly.UserAgent(s.UserAgent),
		colly.AllowedDomains(parsed.Hostname()),
		colly.MaxBodySize(10<<20),
		colly.DetectCharset(),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(s.RequestTimeout)
	collector.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      s.DomainDelay,
	})

	if err := ctx.Err(); err != nil {
		return nil, upstreamErr("page", err)
	}

	var body []byte
	var fetchErr error

	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, upstreamErr("page", fmt.Errorf("fetching %s: %w", pageURL, err))
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, upstreamErr("page", fmt.Errorf("fetching %s: %w", pageURL, fetchErr))
	}
	if len(body) == 0 {
		return nil, noDataErr("page", "empty response from %s", pageURL)
	}
	return body, nil
}

// extractionStrategy is one way of pulling structured conditions out of a
// page. Strategies are tried in configuration order.
type extractionStrategy interface {
	Name() string
	Extract(doc *goquery.Document) (*PageConditions, error)
}

func (s *PageScraper) strategiesFor(cfg PageConfig) ([]extractionStrategy, error) {
	out := make([]extractionStrategy, 0, len(cfg.Strategies))
	for _, sc := range cfg.Strategies {
		switch sc.Type {
		case "embedded_json":
			out = append(out, &embeddedJSONStrategy{Anchor: sc.Anchor, Marker: sc.Marker})
		case "selectors":
			out = append(out, &selectorStrategy{Selectors: sc.Selectors})
		default:
			return nil, fmt.Errorf("unknown extraction strategy %q", sc.Type)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no extraction strategies configured")
	}
	return out, nil
}

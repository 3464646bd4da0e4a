package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "powder-tracker/1.0 (+https://github.com/powderlines/powder-tracker)"

// apiFetcher is the shared HTTP layer for the JSON API adapters. It applies
// a bounded timeout per request, a minimum inter-request spacing per upstream
// host, and a circuit breaker per adapter so a flapping upstream is shed
// quickly instead of eating the whole batch window.
type apiFetcher struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
	minInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // per host
}

func newAPIFetcher(name string, timeout, minInterval time.Duration) *apiFetcher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if minInterval <= 0 {
		minInterval = 500 * time.Millisecond
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &apiFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		breaker:     cb,
		minInterval: minInterval,
		limiters:    make(map[string]*rate.Limiter),
	}
}

func (f *apiFetcher) limiterFor(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(f.minInterval), 1)
		f.limiters[host] = lim
	}
	return lim
}

// getJSON fetches rawURL and decodes the response body into out. Failures
// are classified: network/non-2xx -> upstream, undecodable body -> parse.
func (f *apiFetcher) getJSON(ctx context.Context, source, rawURL string, headers map[string]string, out interface{}) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	if err := f.limiterFor(u.Host).Wait(ctx); err != nil {
		return upstreamErr(source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	result, err := f.breaker.Execute(func() (interface{}, error) {
		resp, execErr := f.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		return upstreamErr(source, err)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return upstreamErr(source, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return parseErr(source, fmt.Errorf("decoding %s response: %w", source, err))
	}
	return nil
}

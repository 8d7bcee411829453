package trustlist

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	fetchTimeout     = 10 * time.Second
	maxListBodyBytes = 1 << 20 // the list is a few KB; anything larger is broken
)

// HTTPFetcher retrieves the trusted-accounts document over HTTP. A circuit
// breaker stops hammering a failing source; breaker-open surfaces as a fetch
// error, which the cache already degrades through.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPFetcher(url string) *HTTPFetcher {
	settings := gobreaker.Settings{
		Name:    "trusted-list",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
		},
	}

	return &HTTPFetcher{
		url:     url,
		client:  &http.Client{Timeout: fetchTimeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	body, err := f.breaker.Execute(func() (any, error) {
		return f.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return body.(string), nil
}

func (f *HTTPFetcher) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build trusted-list request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("trusted-list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("trusted-list source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read trusted-list body: %w", err)
	}
	return string(body), nil
}

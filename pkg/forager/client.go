// Package forager provides a client for the Forager organization
// autocomplete API, used to resolve company names to website domains.
package forager

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the API has no organization for the name.
var ErrNotFound = eris.New("forager: no results")

// ErrEmptyName is returned for blank lookups; nothing was sent upstream.
var ErrEmptyName = eris.New("forager: no company name provided")

// Client defines the Forager lookup operations.
type Client interface {
	// LookupWebsite resolves a company name to its website domain.
	LookupWebsite(ctx context.Context, name string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithDelayRange overrides the randomized pre-call delay bounds.
func WithDelayRange(minD, maxD time.Duration) Option {
	return func(c *httpClient) {
		c.delayMin = minD
		c.delayMax = maxD
	}
}

// WithRetryDelayRange overrides the delay bounds used before the single
// retry after a 429 response.
func WithRetryDelayRange(minD, maxD time.Duration) Option {
	return func(c *httpClient) {
		c.retryDelayMin = minD
		c.retryDelayMax = maxD
	}
}

type httpClient struct {
	baseURL       string
	http          *http.Client
	limiter       *rate.Limiter
	delayMin      time.Duration
	delayMax      time.Duration
	retryDelayMin time.Duration
	retryDelayMax time.Duration
}

// NewClient creates a Forager client. Calls are paced by both a token
// bucket (one lookup per second sustained) and a randomized 0.5-2s
// pre-call delay so bursts of role lookups do not trip the API throttle.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api-v2.forager.ai/api/datastorage/autocomplete/organizations/",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:       rate.NewLimiter(rate.Limit(1), 1),
		delayMin:      500 * time.Millisecond,
		delayMax:      2 * time.Second,
		retryDelayMin: 5 * time.Second,
		retryDelayMax: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type autocompleteResponse struct {
	Results []struct {
		Text string `json:"text"`
	} `json:"results"`
}

// LookupWebsite resolves a company name to a website domain. A 429 response
// is retried exactly once after a longer randomized delay.
func (c *httpClient) LookupWebsite(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "forager: rate limiter")
	}
	if err := sleepRandom(ctx, c.delayMin, c.delayMax); err != nil {
		return "", err
	}

	body, status, err := c.get(ctx, name)
	if err != nil {
		return "", err
	}

	if status == http.StatusTooManyRequests {
		zap.L().Warn("forager: rate limited, retrying after delay",
			zap.String("name", name),
		)
		if err := sleepRandom(ctx, c.retryDelayMin, c.retryDelayMax); err != nil {
			return "", err
		}
		body, status, err = c.get(ctx, name)
		if err != nil {
			return "", err
		}
	}

	if status != http.StatusOK {
		return "", eris.Errorf("forager: api error: status %d", status)
	}

	var parsed autocompleteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", eris.Wrap(err, "forager: decode response")
	}

	if len(parsed.Results) == 0 {
		return "", ErrNotFound
	}

	// Result text is "Company Name - website.com".
	parts := strings.SplitN(parsed.Results[0].Text, " - ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "", eris.Errorf("forager: unrecognized result format: %q", parsed.Results[0].Text)
	}

	return strings.TrimSpace(parts[1]), nil
}

func (c *httpClient) get(ctx context.Context, name string) ([]byte, int, error) {
	u := c.baseURL + "?q=" + url.QueryEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "forager: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "forager: lookup %q", name)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, 0, eris.Wrap(err, "forager: read body")
	}

	return body, resp.StatusCode, nil
}

// sleepRandom waits a random duration in [minD, maxD], aborting on context
// cancellation.
func sleepRandom(ctx context.Context, minD, maxD time.Duration) error {
	d := minD
	if span := maxD - minD; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "forager: canceled during delay")
	case <-timer.C:
		return nil
	}
}

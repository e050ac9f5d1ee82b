// Package render retrieves rendered page content for article URLs. Engines
// are pluggable so the HTTP fallback can be swapped for a headless-browser
// service without touching the fetch pipeline.
package render

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// Page is the result of rendering a URL.
type Page struct {
	StatusCode int
	HTML       string
	Text       string // visible text when the engine can separate it; else ""
	Title      string
}

// Viewport is the simulated browser window size.
type Viewport struct {
	Width  int
	Height int
}

// Options configures a single render request.
type Options struct {
	Viewport  Viewport
	UserAgent string
	Headers   map[string]string
	Timeout   time.Duration
}

// Engine renders a single URL. Implementations must return a *StatusError
// for non-2xx responses so callers can distinguish throttling from
// transport failures.
type Engine interface {
	Name() string
	Render(ctx context.Context, url string, opts Options) (*Page, error)
}

// StatusError reports a non-success HTTP status from the rendering engine.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("render: status %d for %s", e.Code, e.URL)
}

// RandomViewport returns a viewport within common desktop bounds.
func RandomViewport() Viewport {
	return Viewport{
		Width:  1024 + rand.IntN(1920-1024+1),
		Height: 768 + rand.IntN(1080-768+1),
	}
}

// RandomUserAgent returns a well-formed Chrome-on-Windows user agent with
// randomized version components.
func RandomUserAgent() string {
	major := 90 + rand.IntN(21)
	build := 1000 + rand.IntN(9000)
	patch := 100 + rand.IntN(900)
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/" + strconv.Itoa(major) + ".0." +
		strconv.Itoa(build) + "." + strconv.Itoa(patch) + " Safari/537.36"
}

// DefaultHeaders mimics an interactive browser session.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}
}

// Pool holds a fixed set of engines and picks one at random per request to
// vary the crawl fingerprint.
type Pool struct {
	engines []Engine
}

// NewPool creates a Pool. At least one engine is required.
func NewPool(engines ...Engine) *Pool {
	return &Pool{engines: engines}
}

// Pick returns a random engine from the pool.
func (p *Pool) Pick() Engine {
	return p.engines[rand.IntN(len(p.engines))]
}

// Size returns the number of engines in the pool.
func (p *Pool) Size() int {
	return len(p.engines)
}


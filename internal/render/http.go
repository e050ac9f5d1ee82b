package render

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const maxBodyBytes = 2 * 1024 * 1024

// HTTPEngine renders pages with a plain HTTP GET. It cannot execute
// JavaScript, so heavily scripted pages come back as shells; block
// detection downgrades those to a 403 so the fetcher retries elsewhere.
type HTTPEngine struct {
	name   string
	client *http.Client
}

// NewHTTPEngine creates an HTTPEngine with the given pool name.
func NewHTTPEngine(name string) *HTTPEngine {
	return &HTTPEngine{
		name: name,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

func (e *HTTPEngine) Name() string { return e.name }

// Render fetches the URL with the requested fingerprint. Non-2xx responses
// surface as *StatusError; anti-bot challenge pages are reported as 403
// even when the origin answered 200.
func (e *HTTPEngine) Render(ctx context.Context, targetURL string, opts Options) (*Page, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "render: create request for %s", targetURL)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = RandomUserAgent()
	}
	req.Header.Set("User-Agent", ua)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "render: fetch %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrapf(err, "render: read body for %s", targetURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, URL: targetURL}
	}

	if blocked, _ := DetectBlock(resp, body); blocked {
		return nil, &StatusError{Code: http.StatusForbidden, URL: targetURL}
	}

	return &Page{
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

// Package fetch retrieves normalized article text for the pipeline. It owns
// all politeness delays, fingerprint rotation, and retry policy; callers see
// either normalized content or the empty string.
package fetch

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/render"
	"github.com/sells-group/dealsource/internal/resilience"
)

// Config controls fetch pacing and retry behavior.
type Config struct {
	// DelayMin/DelayMax bound the randomized politeness delay applied
	// before every attempt, including the first.
	DelayMin time.Duration
	DelayMax time.Duration

	// MaxRetries bounds retries after the first attempt.
	MaxRetries int

	// RateLimitBase is the backoff base for 429/403 responses.
	RateLimitBase time.Duration
	// FailureBase is the backoff base for other transport failures.
	FailureBase time.Duration

	// PageTimeout bounds a single render request.
	PageTimeout time.Duration

	// SnapshotDir, when set, receives one raw HTML artifact per successful
	// fetch for debugging. Snapshot failures never fail the fetch.
	SnapshotDir string
}

// DefaultConfig mirrors the production crawl pacing.
func DefaultConfig() Config {
	return Config{
		DelayMin:      3 * time.Second,
		DelayMax:      8 * time.Second,
		MaxRetries:    3,
		RateLimitBase: 10 * time.Second,
		FailureBase:   30 * time.Second,
		PageTimeout:   60 * time.Second,
	}
}

// Fetcher retrieves and normalizes page content through a render pool.
type Fetcher struct {
	pool *render.Pool
	cfg  Config

	// overridable in tests
	backoffFn func(attempt int, rateLimited bool) time.Duration
}

// New creates a Fetcher.
func New(pool *render.Pool, cfg Config) *Fetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RateLimitBase <= 0 {
		cfg.RateLimitBase = 10 * time.Second
	}
	if cfg.FailureBase <= 0 {
		cfg.FailureBase = 30 * time.Second
	}
	f := &Fetcher{pool: pool, cfg: cfg}
	f.backoffFn = f.backoff
	return f
}

// Fetch returns normalized text content for a URL, prefixed with a derived
// title. An unrecoverable failure returns ("", nil): the empty result is a
// first-class outcome, not an error, so per-URL problems never escape as
// pipeline failures. Only context cancellation surfaces as an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	log := zap.L().With(zap.String("url", url))

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if err := f.politenessDelay(ctx); err != nil {
			return "", err
		}

		engine := f.pool.Pick()
		page, err := engine.Render(ctx, url, render.Options{
			Viewport:  render.RandomViewport(),
			UserAgent: render.RandomUserAgent(),
			Headers:   render.DefaultHeaders(),
			Timeout:   f.cfg.PageTimeout,
		})
		if err == nil {
			f.snapshot(url, page.HTML)
			return Normalize(page), nil
		}

		if ctx.Err() != nil {
			return "", eris.Wrapf(ctx.Err(), "fetch: canceled for %s", url)
		}

		rateLimited := isRateLimitStatus(err)
		log.Warn("fetch: attempt failed",
			zap.String("engine", engine.Name()),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", f.cfg.MaxRetries+1),
			zap.Bool("rate_limited", rateLimited),
			zap.Error(err),
		)

		if attempt >= f.cfg.MaxRetries {
			break
		}

		delay := f.backoffFn(attempt, rateLimited)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", eris.Wrapf(ctx.Err(), "fetch: canceled for %s", url)
		case <-timer.C:
		}
	}

	log.Error("fetch: exhausted retries", zap.Int("attempts", f.cfg.MaxRetries+1))
	return "", nil
}

// politenessDelay waits a random duration in [DelayMin, DelayMax].
func (f *Fetcher) politenessDelay(ctx context.Context) error {
	d := f.cfg.DelayMin
	if span := f.cfg.DelayMax - f.cfg.DelayMin; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "fetch: canceled during politeness delay")
	case <-timer.C:
		return nil
	}
}

// backoff picks the schedule for the error class: rate limits back off from
// a short base with wide jitter, transport failures from a longer base.
func (f *Fetcher) backoff(attempt int, rateLimited bool) time.Duration {
	if rateLimited {
		return resilience.Backoff(attempt, resilience.RetryConfig{
			BaseDelay: f.cfg.RateLimitBase,
			JitterMin: 10 * time.Second,
			JitterMax: 30 * time.Second,
		})
	}
	return resilience.Backoff(attempt, resilience.RetryConfig{
		BaseDelay: f.cfg.FailureBase,
		JitterMin: 5 * time.Second,
		JitterMax: 15 * time.Second,
	})
}

func isRateLimitStatus(err error) bool {
	var se *render.StatusError
	if errors.As(err, &se) {
		return se.Code == 429 || se.Code == 403
	}
	return resilience.IsRateLimited(err)
}

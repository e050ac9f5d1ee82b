// Package feeds pulls article URLs from configured RSS/Atom sources and
// seeds them into the article store and the status tracker.
package feeds

import (
	"context"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealsource/internal/config"
	"github.com/sells-group/dealsource/internal/model"
	"github.com/sells-group/dealsource/internal/status"
	"github.com/sells-group/dealsource/internal/store"
)

// IngestResult reports what one ingest pass did.
type IngestResult struct {
	Fetched  int `json:"fetched"`  // feed items seen
	Inserted int `json:"inserted"` // new articles stored
	Skipped  int `json:"skipped"`  // already-known links
	Failed   int `json:"failed"`   // feeds that could not be pulled
}

// Ingester pulls feeds and records new article URLs.
type Ingester struct {
	parser  *gofeed.Parser
	store   store.ArticleStore
	tracker status.Tracker
	cfg     config.FeedsConfig
}

// NewIngester creates an Ingester over the configured sources.
func NewIngester(st store.ArticleStore, tracker status.Tracker, cfg config.FeedsConfig) *Ingester {
	return &Ingester{
		parser:  gofeed.NewParser(),
		store:   st,
		tracker: tracker,
		cfg:     cfg,
	}
}

// Ingest pulls every configured feed concurrently and inserts unseen
// articles. A feed that cannot be pulled is logged and skipped; the pass
// only fails when the store or tracker is unavailable.
func (in *Ingester) Ingest(ctx context.Context) (*IngestResult, error) {
	result := &IngestResult{}
	var mu sync.Mutex

	concurrency := in.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, src := range in.cfg.Sources {
		g.Go(func() error {
			items, err := in.pull(gCtx, src)
			if err != nil {
				zap.L().Warn("feeds: pull failed",
					zap.String("source", src.Name),
					zap.String("url", src.URL),
					zap.Error(err),
				)
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}

			for _, a := range items {
				inserted, err := in.store.Insert(gCtx, a)
				if err != nil {
					return eris.Wrapf(err, "feeds: store %s", a.Link)
				}

				mu.Lock()
				result.Fetched++
				if inserted {
					result.Inserted++
				} else {
					result.Skipped++
				}
				mu.Unlock()

				if !inserted {
					continue
				}
				// Seed the tracker so the next run selects the URL.
				if err := in.tracker.Update(gCtx, a.Link, model.StatusNew, ""); err != nil {
					return eris.Wrapf(err, "feeds: seed status %s", a.Link)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	zap.L().Info("feeds: ingest complete",
		zap.Int("fetched", result.Fetched),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed_feeds", result.Failed),
	)
	return result, nil
}

// pull fetches and parses one feed.
func (in *Ingester) pull(ctx context.Context, src config.FeedSource) ([]model.Article, error) {
	timeout := time.Duration(in.cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	feed, err := in.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "feeds: parse %s", src.URL)
	}

	var out []model.Article
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		a := model.Article{
			Title:   item.Title,
			Link:    item.Link,
			Summary: item.Description,
			Source:  src.Name,
		}
		if item.PublishedParsed != nil {
			a.Published = *item.PublishedParsed
		}
		out = append(out, a)
	}
	return out, nil
}

// Package pipeline drives the per-URL deal discovery state machine: fetch,
// classify, extract, enrich, register companies, export, and record status.
package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/company"
	"github.com/sells-group/dealsource/internal/config"
	"github.com/sells-group/dealsource/internal/fetch"
	"github.com/sells-group/dealsource/internal/llm"
	"github.com/sells-group/dealsource/internal/model"
	"github.com/sells-group/dealsource/internal/status"
	"github.com/sells-group/dealsource/internal/store"
)

// ContentFetcher retrieves normalized article text for a URL. An empty
// string with a nil error means the page could not be fetched after all
// retries; callers treat that as a first-class outcome.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// RelevanceClassifier screens article text for deal relevance.
type RelevanceClassifier interface {
	IsDealRelated(ctx context.Context, title, content string) (bool, error)
}

// DealExtractor structures deal-related article text into a record.
type DealExtractor interface {
	Extract(ctx context.Context, title, link, content string) (model.DealRecord, error)
}

// EntityEnricher resolves role names on a record to website domains.
type EntityEnricher interface {
	Enrich(ctx context.Context, rec model.DealRecord) model.DealRecord
}

// ResultWriter durably persists one record per processed URL.
type ResultWriter interface {
	Write(rec model.DealRecord) error
}

// RunSummary reports what one pipeline run did.
type RunSummary struct {
	RunID     string
	Processed int
	Crawled   int
	NoDeals   int
	Errored   int
	Started   time.Time
	Duration  time.Duration
}

// Orchestrator sequences one run over the pending URLs.
type Orchestrator struct {
	tracker    status.Tracker
	fetcher    ContentFetcher
	classifier RelevanceClassifier
	extractor  DealExtractor
	enricher   EntityEnricher
	registrar  *company.Registrar
	writer     ResultWriter
	articles   store.ArticleStore
	cfg        config.PipelineConfig

	// overridable in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Orchestrator with all collaborators.
func New(
	tracker status.Tracker,
	fetcher ContentFetcher,
	classifier RelevanceClassifier,
	extractor DealExtractor,
	enricher EntityEnricher,
	registrar *company.Registrar,
	writer ResultWriter,
	articles store.ArticleStore,
	cfg config.PipelineConfig,
) *Orchestrator {
	return &Orchestrator{
		tracker:    tracker,
		fetcher:    fetcher,
		classifier: classifier,
		extractor:  extractor,
		enricher:   enricher,
		registrar:  registrar,
		writer:     writer,
		articles:   articles,
		cfg:        cfg,
		sleep:      sleepCtx,
	}
}

// Run processes every pending URL sequentially. URLs already terminal are
// never re-selected. Per-URL failures are recorded and never abort the run;
// only tracker or writer failures are fatal.
func (o *Orchestrator) Run(ctx context.Context, filter func(url string) bool) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	log := zap.L().With(zap.String("run_id", summary.RunID))

	urls, err := o.tracker.Pending(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load pending urls")
	}
	if filter != nil {
		kept := urls[:0]
		for _, u := range urls {
			if filter(u) {
				kept = append(kept, u)
			}
		}
		urls = kept
	}

	log.Info("pipeline: starting run", zap.Int("pending", len(urls)))

	for i, url := range urls {
		if i > 0 {
			if err := o.interURLDelay(ctx); err != nil {
				return summary, eris.Wrap(err, "pipeline: interrupted between urls")
			}
		}

		if err := o.processURL(ctx, url, summary, log); err != nil {
			return summary, err
		}
		summary.Processed++
	}

	summary.Duration = time.Since(summary.Started)
	log.Info("pipeline: run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("crawled", summary.Crawled),
		zap.Int("no_deals", summary.NoDeals),
		zap.Int("errored", summary.Errored),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// processURL walks one URL through the state machine. The returned error is
// non-nil only for fatal conditions (tracker or writer unavailable).
func (o *Orchestrator) processURL(ctx context.Context, url string, summary *RunSummary, log *zap.Logger) error {
	log = log.With(zap.String("url", url))

	if err := o.tracker.Update(ctx, url, model.StatusProcessing, ""); err != nil {
		return eris.Wrapf(err, "pipeline: mark processing %s", url)
	}

	content, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		// Fetch only errors on context cancellation.
		return eris.Wrapf(err, "pipeline: fetch %s", url)
	}

	title := fetch.ExtractTitle(content)

	if content == "" || fetch.IsRateLimitMarker(title, content) {
		log.Warn("pipeline: fetch failed, marking error")
		rec := model.DealRecord{
			ArticleTitle:  title,
			ArticleLink:   url,
			IsDealRelated: model.RelevanceUnknown,
		}
		return o.finish(ctx, url, rec, model.StatusError, "failed crawl: page could not be fetched", summary, log)
	}

	related, err := o.classifier.IsDealRelated(ctx, title, content)
	if err != nil {
		log.Warn("pipeline: classification failed, marking error", zap.Error(err))
		rec := model.DealRecord{
			ArticleTitle:  title,
			ArticleLink:   url,
			IsDealRelated: model.RelevanceUnknown,
		}
		return o.finish(ctx, url, rec, model.StatusError, "classification failed: "+err.Error(), summary, log)
	}

	if !related {
		rec := model.DealRecord{
			ArticleTitle:  title,
			ArticleLink:   url,
			IsDealRelated: model.RelevanceNo,
		}
		return o.finish(ctx, url, rec, model.StatusNoDeals, "no deal content found", summary, log)
	}

	rec, err := o.extractor.Extract(ctx, title, url, content)
	if err != nil {
		var parseErr *llm.ParseError
		if errors.As(err, &parseErr) {
			log.Warn("pipeline: extraction parse failure", zap.String("reason", parseErr.Reason))
			return o.finish(ctx, url, rec, model.StatusError, "extraction failed: "+parseErr.Reason, summary, log)
		}
		log.Warn("pipeline: extraction failed", zap.Error(err))
		return o.finish(ctx, url, rec, model.StatusError, "extraction failed: "+err.Error(), summary, log)
	}

	rec = o.enricher.Enrich(ctx, rec)

	registered := o.registrar.RegisterRoles(ctx, &rec)
	log.Info("pipeline: registered companies", zap.Int("count", registered))

	return o.finish(ctx, url, rec, model.StatusCrawled, "deal record extracted", summary, log)
}

// finish writes the record and records the terminal status for the URL.
// Records for anything but a successful extraction carry the status notes as
// their diagnostic, so the exported row explains itself without the tracker.
func (o *Orchestrator) finish(ctx context.Context, url string, rec model.DealRecord, st model.URLStatus, notes string, summary *RunSummary, log *zap.Logger) error {
	if st != model.StatusCrawled && rec.AdditionalNotes == "" {
		rec.AdditionalNotes = notes
	}
	if err := o.writer.Write(rec); err != nil {
		return eris.Wrapf(err, "pipeline: write result %s", url)
	}
	if err := o.tracker.Update(ctx, url, st, notes); err != nil {
		return eris.Wrapf(err, "pipeline: record status %s", url)
	}

	switch st {
	case model.StatusCrawled:
		summary.Crawled++
		o.markProcessed(ctx, url, true, log)
	case model.StatusNoDeals:
		summary.NoDeals++
		o.markProcessed(ctx, url, false, log)
	case model.StatusError:
		summary.Errored++
	}

	log.Info("pipeline: url done",
		zap.String("status", string(st)),
		zap.String("notes", notes),
	)
	return nil
}

// markProcessed reflects a terminal outcome into the article store. ERROR is
// retryable and deliberately left unmarked. URLs seeded outside the feed
// ingest path have no article row; that miss is not a failure of the run.
func (o *Orchestrator) markProcessed(ctx context.Context, url string, dealRelated bool, log *zap.Logger) {
	if o.articles == nil {
		return
	}
	if err := o.articles.MarkProcessed(ctx, url, dealRelated); err != nil {
		log.Debug("pipeline: article not marked processed", zap.Error(err))
	}
}

// interURLDelay waits a randomized interval between URLs to bound the
// request rate of the whole run, independent of per-fetch retry delays.
func (o *Orchestrator) interURLDelay(ctx context.Context) error {
	minS := o.cfg.URLDelayMinSecs
	maxS := o.cfg.URLDelayMaxSecs
	if maxS <= minS {
		maxS = minS + 1
	}
	d := time.Duration(minS)*time.Second + time.Duration(rand.Int64N(int64(maxS-minS)*int64(time.Second)))
	return o.sleep(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

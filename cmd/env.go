package main

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealsource/internal/company"
	"github.com/sells-group/dealsource/internal/export"
	"github.com/sells-group/dealsource/internal/fetch"
	"github.com/sells-group/dealsource/internal/pipeline"
	"github.com/sells-group/dealsource/internal/render"
	"github.com/sells-group/dealsource/internal/status"
	"github.com/sells-group/dealsource/internal/store"
	"github.com/sells-group/dealsource/pkg/anthropic"
	"github.com/sells-group/dealsource/pkg/forager"
)

// pipelineRunner is the orchestrator surface commands use. Satisfied by
// *pipeline.Orchestrator.
type pipelineRunner interface {
	Run(ctx context.Context, filter func(url string) bool) (*pipeline.RunSummary, error)
}

// env bundles the wired pipeline collaborators for a command invocation.
type env struct {
	Tracker      status.Tracker
	Articles     store.ArticleStore
	Companies    company.Store
	Writer       *export.Writer
	Orchestrator pipelineRunner

	closers []func() error
}

// Close releases resources in reverse construction order.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

// initDataEnv wires the tracker and stores only, for commands that read or
// seed state without starting a pipeline run.
func initDataEnv(ctx context.Context) (*env, error) {
	e := &env{}

	tracker, err := initTracker(e)
	if err != nil {
		return nil, err
	}
	e.Tracker = tracker

	if err := initStores(ctx, e); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// initEnv wires every pipeline collaborator from config. The export writer
// starts a fresh run log, so only run-style commands should call this.
func initEnv(ctx context.Context) (*env, error) {
	e, err := initDataEnv(ctx)
	if err != nil {
		return nil, err
	}

	writer, err := export.NewWriter(cfg.Export.CSVPath, cfg.Export.JSONPath, cfg.Export.XLSXPath)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Writer = writer
	e.closers = append(e.closers, writer.Close)

	aiClient := anthropic.NewClient(cfg.Anthropic.Key)
	var lookupOpts []forager.Option
	if cfg.Forager.BaseURL != "" {
		lookupOpts = append(lookupOpts, forager.WithBaseURL(cfg.Forager.BaseURL))
	}
	lookupClient := forager.NewClient(lookupOpts...)

	pool := render.NewPool(
		render.NewHTTPEngine("chromium"),
		render.NewHTTPEngine("firefox"),
		render.NewHTTPEngine("webkit"),
	)
	fetchCfg := fetch.Config{
		DelayMin:      time.Duration(cfg.Fetch.DelayMinSecs) * time.Second,
		DelayMax:      time.Duration(cfg.Fetch.DelayMaxSecs) * time.Second,
		MaxRetries:    cfg.Fetch.MaxRetries,
		RateLimitBase: time.Duration(cfg.Fetch.RateLimitBaseSec) * time.Second,
		FailureBase:   time.Duration(cfg.Fetch.FailureBaseSecs) * time.Second,
		PageTimeout:   time.Duration(cfg.Fetch.PageTimeoutSecs) * time.Second,
		SnapshotDir:   cfg.Fetch.SnapshotDir,
	}
	fetcher := fetch.New(pool, fetchCfg)

	e.Orchestrator = pipeline.New(
		e.Tracker,
		fetcher,
		pipeline.NewClassifier(aiClient, cfg.Anthropic, cfg.Pipeline.ClassifyMaxChars),
		pipeline.NewExtractor(aiClient, cfg.Anthropic),
		pipeline.NewEnricher(aiClient, lookupClient, cfg.Anthropic),
		company.NewRegistrar(e.Companies),
		writer,
		e.Articles,
		cfg.Pipeline,
	)

	return e, nil
}

// initTracker picks the status backing by path suffix: a .db/.sqlite path
// gets the embedded database, anything else the CSV file.
func initTracker(e *env) (status.Tracker, error) {
	path := cfg.Pipeline.StatusPath
	if strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite") {
		t, err := status.NewSQLiteTracker(path)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, t.Close)
		return t, nil
	}
	return status.NewCSVTracker(path)
}

// initStores opens the article and company stores on the configured driver.
func initStores(ctx context.Context, e *env) error {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "init postgres pool")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return eris.Wrap(err, "ping postgres")
		}
		e.closers = append(e.closers, func() error { pool.Close(); return nil })

		articles := store.NewPostgresWithPool(pool)
		if err := articles.Migrate(ctx); err != nil {
			return err
		}
		companies := company.NewPostgresStore(pool)
		if err := companies.Migrate(ctx); err != nil {
			return err
		}
		e.Articles = articles
		e.Companies = companies
		return nil

	case "sqlite":
		articles, err := store.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, articles.Close)
		if err := articles.Migrate(ctx); err != nil {
			return err
		}

		companies, err := company.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, companies.Close)
		e.Articles = articles
		e.Companies = companies
		return nil

	default:
		return eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/config"
	"github.com/sells-group/dealsource/internal/feeds"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for triggering pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		r := buildRouter(ctx, e, cfg.Feeds)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter assembles the HTTP API over a wired env. runCtx outlives
// individual requests so a triggered run is not canceled when the trigger
// request completes.
func buildRouter(runCtx context.Context, e *env, feedsCfg config.FeedsConfig) http.Handler {
	// One pipeline run at a time; a second trigger gets 409.
	var runMu sync.Mutex

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/feeds/ingest", func(w http.ResponseWriter, req *http.Request) {
		ingester := feeds.NewIngester(e.Articles, e.Tracker, feedsCfg)
		result, err := ingester.Ingest(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/v1/pipeline/run", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Source string `json:"source"`
		}
		if req.Body != nil {
			_ = json.NewDecoder(req.Body).Decode(&body)
		}

		if !runMu.TryLock() {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
			return
		}

		go func() {
			defer runMu.Unlock()

			var filter func(url string) bool
			if body.Source != "" {
				articles, err := e.Articles.List(runCtx, body.Source, 0)
				if err != nil {
					zap.L().Error("serve: list articles failed", zap.Error(err))
					return
				}
				links := make(map[string]bool, len(articles))
				for _, a := range articles {
					links[a.Link] = true
				}
				filter = func(url string) bool { return links[url] }
			}

			summary, err := e.Orchestrator.Run(runCtx, filter)
			if err != nil {
				zap.L().Error("serve: pipeline run failed", zap.Error(err))
				return
			}
			zap.L().Info("serve: pipeline run complete",
				zap.String("run_id", summary.RunID),
				zap.Int("processed", summary.Processed),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	r.Get("/v1/status", func(w http.ResponseWriter, req *http.Request) {
		statuses, err := e.Tracker.Load(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, summarizeStatuses(statuses))
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

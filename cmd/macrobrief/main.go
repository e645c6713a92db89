package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/macrodesk/macrobrief/internal/app"
	"github.com/macrodesk/macrobrief/internal/config"
	"github.com/macrodesk/macrobrief/internal/logger"
	"github.com/macrodesk/macrobrief/internal/metrics"
)

func main() {
	once := flag.Bool("once", false, "run a single briefing cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Scheduled and HTTP-triggered runs must not interleave.
	var runMu sync.Mutex
	runOnce := func(ctx context.Context) error {
		runMu.Lock()
		defer runMu.Unlock()
		return a.Run(ctx)
	}

	if *once {
		if err := runOnce(ctx); err != nil {
			logger.Error("briefing run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New()
	for _, spec := range cfg.CronSpecs() {
		if _, err := scheduler.AddFunc(spec, func() {
			logger.Info("scheduled briefing run starting", "spec", spec)
			if err := runOnce(ctx); err != nil {
				logger.Error("scheduled briefing run failed", "spec", spec, "error", err)
			}
		}); err != nil {
			logger.Error("invalid cron spec", "spec", spec, "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: newRouter(a, runOnce),
	}
	go func() {
		logger.Info("http server listening", "port", cfg.HTTPPort, "schedule", cfg.Schedule)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}
}

func newRouter(a *app.App, runOnce func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		stats := metrics.Global.GetStats()
		status := "ok"
		if !stats["is_healthy"].(bool) {
			status = "error"
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		writeJSON(w, map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	})

	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		stats := metrics.Global.GetStats()
		stats["api_budget"] = a.BudgetStats()
		writeJSON(w, stats)
	})

	r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
		// Detached from the request context so a dropped client does not
		// cancel the run halfway through delivery.
		go func() {
			if err := runOnce(context.Background()); err != nil {
				logger.Error("triggered briefing run failed", "error", err)
			}
		}()
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"status": "started"})
	})

	r.Get("/briefing/latest", func(w http.ResponseWriter, _ *http.Request) {
		briefing, ok := a.LatestBriefing()
		if !ok {
			http.Error(w, "no briefing generated yet", http.StatusNotFound)
			return
		}
		report, _ := a.LatestReport()
		writeJSON(w, map[string]string{"briefing": briefing, "dedup_report": report})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

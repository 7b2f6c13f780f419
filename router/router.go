// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/rankvote/cliparse"
	"github.com/danielhkuo/rankvote/handlers"
	"github.com/danielhkuo/rankvote/metrics"
	"github.com/danielhkuo/rankvote/middleware"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/recorder"
)

// NewRouter registers every endpoint. m may be nil; g serves /metrics.
func NewRouter(db *sql.DB, cfg cliparse.Config, m *metrics.Metrics, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	candidates := models.DefaultCandidates()

	// Initialize handlers
	tabulateHandler := handlers.NewTabulateHandler(candidates, m)
	sessionHandler := handlers.NewSessionHandler(cfg, candidates, m)
	runsHandler := handlers.NewRunsHandler(recorder.NewSQLRecorder(db, cfg.DBType))

	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithMetrics(m, pattern, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", metrics.Handler(g))

	// One-shot tabulation
	handle("GET /candidates", tabulateHandler.Candidates)
	handle("POST /tabulate", tabulateHandler.Tabulate)

	// Progressive sessions (append and delete require X-Session-Key)
	handle("POST /sessions", sessionHandler.Create)
	handle("GET /sessions/{id}", sessionHandler.Get)
	handle("DELETE /sessions/{id}", sessionHandler.Delete)
	handle("POST /sessions/{id}/ballots", sessionHandler.AppendBallot)

	// Recorded simulation runs
	handle("GET /runs", runsHandler.List)
	handle("GET /runs/{id}/steps", runsHandler.ListSteps)
	handle("GET /runs/{id}/steps/{step}", runsHandler.GetStep)

	// Root endpoint; {$} keeps it from matching unknown paths
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rankvote API v1"))
	})

	return mux
}

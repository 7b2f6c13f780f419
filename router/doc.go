// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the rankvote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	reg := prometheus.NewRegistry()
	mux := router.NewRouter(db, cfg, metrics.New(reg), reg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Tabulation:

	GET  /candidates - Candidate labels
	POST /tabulate   - All four rules over a ballot set

Progressive sessions (append and delete require X-Session-Key):

	POST   /sessions              - Open a session
	GET    /sessions/{id}         - Latest step record
	POST   /sessions/{id}/ballots - Append one ballot
	DELETE /sessions/{id}         - Drop the session

Recorded runs:

	GET /runs                   - Runs in the database
	GET /runs/{id}/steps        - Every step of a run
	GET /runs/{id}/steps/{step} - One step

Every route except /health, /metrics and / is wrapped with request logging and
per-route Prometheus metrics.
*/
package router

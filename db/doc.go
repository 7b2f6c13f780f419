// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema for recorded runs.

# Usage

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

Open pings the database and calls CreateSchema. Both sqlite (modernc.org/sqlite,
pure Go) and postgres (github.com/lib/pq) are supported.

# Tables

run: one row per simulation run

  - id: run number (1-based)
  - candidates: JSON array of labels
  - started_at, ended_at: unix seconds; ended_at is NULL while running
  - steps: number of steps recorded

step: one row per appended ballot

  - run_id, step: primary key
  - recorded_at: unix seconds
  - ballot: JSON array, the ballot appended at this step
  - plurality, borda, condorcet, irv: winner labels, NULL for no winner

The full ballot set of a step is the ballots of steps 1..step of its run.

# Placeholders

Queries are written with ? and passed through Rebind, which produces $n
placeholders for postgres.
*/
package db

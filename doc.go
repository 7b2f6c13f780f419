// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the rankvote command.

rankvote tabulates ranked ballots over a small candidate set under four rules
(Plurality, Borda, Condorcet and instant runoff) and simulates progressive
elections in which the tally is recomputed after every ballot.

# Commands

	rankvote validate [-quick] [-seed N]
	rankvote small    [-seed N] [-sinks file,sql,s3,kafka]
	rankvote full     [-runs N] [-max-voters N] [-workers N] [-resume=false]
	rankvote post     [-root DIR]
	rankvote serve    [-p PORT] [-d URL] [-t sqlite|postgres]

validate writes sampler checks to analysis/validation. small and full simulate
runs and record every step to the selected sinks. post aggregates recorded runs
into analysis/aggregate_stats.json and data/processed. serve starts the HTTP API.

# Configuration

Every flag has an environment fallback, and a .env file is loaded first:

  - RANKVOTE_ROOT (-root): directory for data and analysis files
  - RANKVOTE_SEED (-seed): random seed, picked and logged when unset
  - DATABASE_URL (-d), DATABASE_TYPE (-t): sql sink and API store
  - SESSION_KEY_SALT (--session-salt): required for serve
  - RANKVOTE_S3_BUCKET, KAFKA_BROKERS: required by the s3 and kafka sinks
  - LOG_LEVEL (--log-level): debug, info, warn or error

# Architecture

  - rules: the four tabulation rules
  - tabulator: progressive tabulation, one step record per ballot
  - sampler: uniform ballot sampling and its statistical checks
  - engine: concurrent simulation runs
  - recorder: file, SQL, S3 and Kafka sinks for step records
  - analysis: aggregate statistics and features over recorded runs
  - handlers, router, middleware, auth: HTTP API
  - metrics: Prometheus collectors
  - db: schema creation
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Commands

The first argument selects what to do:

	validate   sampler uniformity, pairwise balance and independence reports
	small      10 runs of 50 voters
	full       1000 runs of 500 voters
	post       aggregate statistics and features from recorded runs
	serve      HTTP API

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-root            Project root (data/raw, data/processed, analysis/)
	-seed            Random seed
	-quick           Smaller samples for validate
	-runs            Number of runs
	-max-voters      Ballots per run
	-workers         Runs in parallel
	-resume          Skip recorded runs (default true)
	-sinks           file, sql, s3, kafka
	-p               Server port
	-d               Database URL
	-t               Database type (sqlite or postgres)
	-session-salt    Session key salt
	-s3-bucket, -s3-region, -s3-endpoint, -s3-prefix, -s3-path-style
	-kafka-brokers, -kafka-topic
	-log-level       debug, info, warn or error

# Environment Variables

Flags fall back to environment variables:

	RANKVOTE_ROOT        → -root
	RANKVOTE_SEED        → -seed
	RANKVOTE_RUNS        → -runs
	RANKVOTE_MAX_VOTERS  → -max-voters
	RANKVOTE_WORKERS     → -workers
	RANKVOTE_SINKS       → -sinks
	PORT                 → -p
	DATABASE_URL         → -d
	DATABASE_TYPE        → -t
	SESSION_KEY_SALT     → -session-salt
	RANKVOTE_S3_*        → -s3-*
	KAFKA_BROKERS        → -kafka-brokers
	RANKVOTE_KAFKA_TOPIC → -kafka-topic
	LOG_LEVEL            → -log-level

RANKVOTE_S3_ACCESS_KEY and RANKVOTE_S3_SECRET_KEY are read from the
environment only. A .env file in the working directory is loaded first.
CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - the command is missing or unknown
  - SESSION_KEY_SALT is missing for serve
  - a selected sink lacks its bucket or brokers
  - postgres is selected without a database URL
*/
package cliparse

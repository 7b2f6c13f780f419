// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package recorder persists the step records produced by simulation runs.
//
// Sinks:
//   - FileRecorder: data/raw/run_NNNN.json, one JSON array per run
//   - SQLRecorder: run and step tables in SQLite or PostgreSQL
//   - S3Recorder: the run file uploaded as one object when the run ends
//   - KafkaRecorder: one message per step, keyed by run id
//
// Multi combines several sinks. A run counts as already recorded (for
// resuming) only when every sink that can check agrees.
package recorder

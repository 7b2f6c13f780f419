// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package analysis aggregates recorded simulation runs: how often a Condorcet
// winner exists at each step, how often the rules agree, how often the
// winners change between steps, and per-run features for downstream models.
package analysis

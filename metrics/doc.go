// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus counters and histograms for tabulation
// steps, simulation runs and HTTP requests. Collectors are registered on the
// Registerer passed to New; methods on a nil *Metrics are no-ops.
package metrics

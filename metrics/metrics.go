// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/rankvote/models"
)

// Metrics holds the Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	stepsTabulated prometheus.Counter
	noWinner       *prometheus.CounterVec
	tabulation     prometheus.Histogram
	oneShot        prometheus.Counter
	oneShotBallots prometheus.Counter
	runsCompleted  prometheus.Counter
	runsSkipped    prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsTabulated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankvote_steps_tabulated_total",
			Help: "Total number of tabulation steps (one per appended ballot).",
		}),
		noWinner: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rankvote_no_winner_total",
			Help: "Steps at which a rule produced no winner, by rule.",
		}, []string{"rule"}),
		tabulation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rankvote_tabulation_duration_seconds",
			Help:    "Time to tabulate all rules for one step.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		oneShot: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankvote_tabulate_requests_total",
			Help: "One-shot tabulations of a whole ballot set.",
		}),
		oneShotBallots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankvote_tabulate_ballots_total",
			Help: "Ballots received by one-shot tabulations.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankvote_runs_completed_total",
			Help: "Simulation runs completed.",
		}),
		runsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rankvote_runs_skipped_total",
			Help: "Simulation runs skipped because they were already recorded.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rankvote_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rankvote_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rankvote_active_sessions",
			Help: "Progressive tabulation sessions held in memory.",
		}),
	}

	reg.MustRegister(
		m.stepsTabulated,
		m.noWinner,
		m.tabulation,
		m.oneShot,
		m.oneShotBallots,
		m.runsCompleted,
		m.runsSkipped,
		m.httpRequests,
		m.httpDuration,
		m.activeSessions,
	)

	for _, rule := range models.RuleNames {
		m.noWinner.WithLabelValues(rule)
	}

	return m
}

// ObserveStep records one tabulated step.
func (m *Metrics) ObserveStep(rec models.StepRecord, took time.Duration) {
	if m == nil {
		return
	}
	m.stepsTabulated.Inc()
	m.tabulation.Observe(took.Seconds())
	for _, rule := range models.RuleNames {
		if rec.Winners.Get(rule) == nil {
			m.noWinner.WithLabelValues(rule).Inc()
		}
	}
}

// ObserveTabulate records a one-shot tabulation. It is kept apart from the
// step counters, which count appended ballots only.
func (m *Metrics) ObserveTabulate(ballots int) {
	if m == nil {
		return
	}
	m.oneShot.Inc()
	m.oneShotBallots.Add(float64(ballots))
}

func (m *Metrics) RunCompleted() {
	if m == nil {
		return
	}
	m.runsCompleted.Inc()
}

func (m *Metrics) RunSkipped() {
	if m == nil {
		return
	}
	m.runsSkipped.Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(took.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Package metrics exposes controller counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Toggle results.
const (
	ResultApplied = "applied"
	ResultFault   = "fault"
	ResultAborted = "aborted"
)

// Reasons a frame or session is dropped.
const (
	DropInvalidIndex = "invalid_index"
	DropMalformed    = "malformed"
	DropSlowClient   = "slow_client"
	DropSessionBusy  = "session_busy"
)

// Metrics holds the controller's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	toggles        *prometheus.CounterVec
	toggleDuration prometheus.Histogram
	deltas         prometheus.Counter
	snapshots      prometheus.Counter
	sessions       prometheus.Gauge
	dropped        *prometheus.CounterVec
}

// New registers the collectors on a fresh registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Toggle requests processed, by line and result",
		}, []string{"line", "result"}),

		toggleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "toggle_duration_seconds",
			Help:      "Time from accepting a toggle to publishing its delta",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		deltas: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_broadcast_total",
			Help:      "Deltas broadcast to sessions",
		}),

		snapshots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_sent_total",
			Help:      "Snapshots sent to sessions",
		}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Currently active websocket sessions",
		}),

		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Frames or sessions dropped, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) Toggle(line, result string, seconds float64) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(line, result).Inc()
	if result == ResultApplied {
		m.toggleDuration.Observe(seconds)
	}
}

func (m *Metrics) Delta() {
	if m == nil {
		return
	}
	m.deltas.Inc()
}

func (m *Metrics) Snapshot() {
	if m == nil {
		return
	}
	m.snapshots.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package engine

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/dshills/redline/internal/engine/changes"
	"github.com/dshills/redline/internal/engine/reconcile"
)

const metricsNamespace = "redline"

// Metrics holds the Prometheus collectors of one session. Each session
// registers them on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	// loads counts stream loads.
	// Labels: status (ok, malformed, error)
	loads *prometheus.CounterVec

	declared     prometheus.Counter
	splits       prometheus.Counter
	merged       prometheus.Counter
	materialized prometheus.Counter

	// reviews counts resolved changes.
	// Labels: action (accept, reject), kind (insertion, deletion, format-change)
	reviews *prometheus.CounterVec

	// history counts undo and redo operations.
	// Labels: op (undo, redo)
	history *prometheus.CounterVec

	open prometheus.Gauge
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stream",
			Name:      "loads_total",
			Help:      "Total stream loads by status",
		}, []string{"status"}),
		declared: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "stream",
			Name:      "declared_changes_total",
			Help:      "Total change declarations read from streams",
		}),
		splits: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "reconcile",
			Name:      "splits_total",
			Help:      "Total region splits during loads",
		}),
		merged: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "deletion",
			Name:      "merged_total",
			Help:      "Total deletion regions merged into a neighbour",
		}),
		materialized: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "deletion",
			Name:      "materialized_total",
			Help:      "Total deletions captured as fragments",
		}),
		reviews: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "review",
			Name:      "changes_total",
			Help:      "Total changes accepted or rejected",
		}, []string{"action", "kind"}),
		history: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "history",
			Name:      "operations_total",
			Help:      "Total undo and redo operations",
		}, []string{"op"}),
		open: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "review",
			Name:      "open_changes",
			Help:      "Changes neither accepted nor rejected",
		}),
	}
}

// Registry returns the Prometheus registry holding the session metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Snapshot returns the current value of every series, keyed by metric name
// followed by its labels in braces, e.g. `redline_review_changes_total{action="accept",kind="deletion"}`.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			out[seriesName(mf.GetName(), metric.GetLabel())] = value(metric)
		}
	}
	return out, nil
}

func seriesName(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	pairs := make([]string, 0, len(labels))
	for _, l := range labels {
		pairs = append(pairs, l.GetName()+`="`+l.GetValue()+`"`)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

func value(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetUntyped() != nil:
		return m.GetUntyped().GetValue()
	}
	return 0
}

func (m *Metrics) observeLoad(stats reconcile.LoadStats) {
	m.loads.WithLabelValues("ok").Inc()
	m.declared.Add(float64(stats.Declared))
	m.splits.Add(float64(stats.Reconcile.Splits))
	m.merged.Add(float64(stats.Merge.Merged))
	m.materialized.Add(float64(stats.Merge.Materialized))
}

func (m *Metrics) loadFailed(err error) {
	status := "error"
	if malformed(err) {
		status = "malformed"
	}
	m.loads.WithLabelValues(status).Inc()
}

func (m *Metrics) reviewed(accept bool, kind changes.Kind) {
	action := "reject"
	if accept {
		action = "accept"
	}
	m.reviews.WithLabelValues(action, kind.String()).Inc()
}

func (m *Metrics) setOpen(n int) {
	m.open.Set(float64(n))
}

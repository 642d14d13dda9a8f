// Package metrics exports repository activity as Prometheus metrics.
//
// Metrics implements repository.Observer; hand it to the repository through
// its options and register it on any prometheus.Registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/i5heu/typecanon/pkg/repository"
)

const namespace = "typecanon"

// Metrics holds the collectors fed by one repository.
type Metrics struct {
	// Decisions counts insertions by outcome.
	// Labels: outcome (singleton_found, exact_found, probe_found, ...)
	Decisions *prometheus.CounterVec

	// CombinedSize observes the vertex count handed to the minimizer.
	CombinedSize prometheus.Histogram

	// Removed counts vertices the minimizer folded away.
	Removed prometheus.Counter

	IDs        prometheus.Gauge
	Components prometheus.Gauge
	Vertices   prometheus.Gauge
}

var _ repository.Observer = (*Metrics)(nil)

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics { // A
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "insertions_total",
				Help:      "SCC insertions by decision outcome",
			},
			[]string{"outcome"},
		),
		CombinedSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "minimizer_input_vertices",
			Help:      "Vertices of a batch plus its candidates passed to the minimizer",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minimizer_removed_vertices_total",
			Help:      "Vertices merged into an equivalent vertex by the minimizer",
		}),
		IDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ids",
			Help:      "Published canonical ids",
		}),
		Components: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components",
			Help:      "Published components",
		}),
		Vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vertices",
			Help:      "Vertices held by published components",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Decisions, m.CombinedSize, m.Removed, m.IDs, m.Components, m.Vertices)
	}
	return m
}

func (m *Metrics) Decision(o repository.Outcome) {
	m.Decisions.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) Minimized(combined, blocks int) {
	m.CombinedSize.Observe(float64(combined))
	m.Removed.Add(float64(combined - blocks))
}

func (m *Metrics) Sizes(ids, components, vertices int) {
	m.IDs.Set(float64(ids))
	m.Components.Set(float64(components))
	m.Vertices.Set(float64(vertices))
}

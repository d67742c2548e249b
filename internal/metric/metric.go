// Package metric holds the prometheus collectors recorded by the provider.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mapjar"

// Metrics contains all provider metrics.
type Metrics struct {
	ProvideTotal     *prometheus.CounterVec
	StateTransitions *prometheus.CounterVec
	RemapDuration    *prometheus.HistogramVec
	CleanupTotal     prometheus.Counter
	CleanupErrors    prometheus.Counter
	ArtifactBytes    *prometheus.GaugeVec
}

// NewMetrics creates a new, unregistered Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		ProvideTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "provide_total",
				Help:      "Total number of provide runs by outcome (skipped, rebuilt, failed)",
			},
			[]string{"outcome"},
		),

		StateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "state_transitions_total",
				Help:      "Total number of provider state entries",
			},
			[]string{"state"},
		),

		RemapDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "remap",
				Name:      "duration_seconds",
				Help:      "Duration of remap passes in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"pass", "engine"},
		),

		CleanupTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "runs_total",
				Help:      "Total number of cleanup runs after failed rebuilds",
			},
		),

		CleanupErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "errors_total",
				Help:      "Total number of secondary errors raised during cleanup",
			},
		),

		ArtifactBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "artifact",
				Name:      "size_bytes",
				Help:      "Size of the last produced artifact by role",
			},
			[]string{"role"},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ProvideTotal,
		m.StateTransitions,
		m.RemapDuration,
		m.CleanupTotal,
		m.CleanupErrors,
		m.ArtifactBytes,
	}
}

// RecordProvide increments the provide counter for an outcome.
func (m *Metrics) RecordProvide(outcome string) {
	m.ProvideTotal.WithLabelValues(outcome).Inc()
}

// RecordState counts entry into a provider state.
func (m *Metrics) RecordState(state string) {
	m.StateTransitions.WithLabelValues(state).Inc()
}

// RecordRemap records the duration of one remap pass.
func (m *Metrics) RecordRemap(pass, engine string, d time.Duration) {
	m.RemapDuration.WithLabelValues(pass, engine).Observe(d.Seconds())
}

// RecordCleanup counts a cleanup run and its secondary errors.
func (m *Metrics) RecordCleanup(secondary int) {
	m.CleanupTotal.Inc()
	m.CleanupErrors.Add(float64(secondary))
}

// RecordArtifactSize sets the size gauge for a role.
func (m *Metrics) RecordArtifactSize(role string, size int64) {
	m.ArtifactBytes.WithLabelValues(role).Set(float64(size))
}

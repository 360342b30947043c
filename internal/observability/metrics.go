// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CSStats Extension Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/csstats/csstats-extension/pkg/lifecycle"
)

// Metrics contains the lifecycle metrics for the extension.
// It implements lifecycle.Observer.
type Metrics struct {
	HooksTotal      *prometheus.CounterVec
	Phase           *prometheus.GaugeVec
	LoggingFailures prometheus.Counter
}

var _ lifecycle.Observer = (*Metrics)(nil)

// NewMetrics creates and registers the lifecycle metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csstats_lifecycle_hooks_total",
				Help: "Total number of lifecycle hook invocations by hook and outcome",
			},
			[]string{"hook", "outcome"},
		),
		Phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "csstats_lifecycle_phase",
				Help: "Current lifecycle phase (1 for the active phase, 0 otherwise)",
			},
			[]string{"phase"},
		),
		LoggingFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "csstats_logging_failures_total",
				Help: "Total number of faults contained inside the diagnostic log sink",
			},
		),
	}

	reg.MustRegister(m.HooksTotal)
	reg.MustRegister(m.Phase)
	reg.MustRegister(m.LoggingFailures)

	m.PhaseChanged(lifecycle.PhaseUnloaded)
	return m
}

// HookCompleted counts a finished hook.
func (m *Metrics) HookCompleted(hook lifecycle.Hook, outcome lifecycle.Outcome) {
	m.HooksTotal.WithLabelValues(hook.String(), string(outcome)).Inc()
}

// PhaseChanged marks phase as the only active phase.
func (m *Metrics) PhaseChanged(phase lifecycle.Phase) {
	for _, p := range lifecycle.Phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.Phase.WithLabelValues(p.String()).Set(v)
	}
}

// RecordLoggingFailure counts a contained log sink fault.
// Its signature matches logging.WithFailureHook.
func (m *Metrics) RecordLoggingFailure(error) {
	m.LoggingFailures.Inc()
}

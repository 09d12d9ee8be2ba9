// Package metrics exposes Prometheus collectors for the engine lifecycle.
// The collectors are fed through domain.LifecycleHooks, so the runtime stays
// free of any metrics dependency.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/ports"
)

// Metrics holds the engine collectors.
type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	StepEntries     *prometheus.CounterVec
	ContextSwitches *prometheus.CounterVec
	SessionLength   prometheus.Histogram
	OracleLatency   prometheus.Histogram
}

// New creates the collectors and registers them with the given registerer.
// Pass prometheus.DefaultRegisterer for the promhttp default handler.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_sessions_started_total",
			Help: "Total number of sessions started.",
		}),
		SessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parley_sessions_ended_total",
			Help: "Total number of sessions ended.",
		}),
		StepEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_step_entries_total",
			Help: "Step entries by context and step.",
		}, []string{"context", "step"}),
		ContextSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_context_switches_total",
			Help: "Context switches by target context.",
		}, []string{"to", "voice_change"}),
		SessionLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parley_session_length_seconds",
			Help:    "Session length from start to end.",
			Buckets: prometheus.ExponentialBuckets(15, 2, 10),
		}),
		OracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parley_oracle_latency_seconds",
			Help:    "Completion oracle evaluation latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.SessionsStarted,
		m.SessionsEnded,
		m.StepEntries,
		m.ContextSwitches,
		m.SessionLength,
		m.OracleLatency,
	)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors. A step entry with an
// empty history position counts as a session start.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEntries.WithLabelValues(e.Context, e.Step).Inc()
		},
		OnContextSwitch: func(_ context.Context, e *domain.SwitchEvent) {
			m.ContextSwitches.WithLabelValues(e.To, boolLabel(e.VoiceChange)).Inc()
		},
		OnSessionEnd: func(_ context.Context, e *domain.EndEvent) {
			m.SessionsEnded.Inc()
			m.SessionLength.Observe(e.Length.Seconds())
		},
	}
}

// CountStart records a session start. Called by the serve wiring alongside
// engine.Start, since the hooks only see step-level events.
func (m *Metrics) CountStart() {
	m.SessionsStarted.Inc()
}

// InstrumentOracle wraps an oracle so every evaluation is timed.
func (m *Metrics) InstrumentOracle(o ports.Oracle) ports.Oracle {
	return &timedOracle{inner: o, latency: m.OracleLatency}
}

type timedOracle struct {
	inner   ports.Oracle
	latency prometheus.Observer
}

func (t *timedOracle) Evaluate(ctx context.Context, step *domain.Step, window []string) (domain.Verdict, error) {
	start := time.Now()
	verdict, err := t.inner.Evaluate(ctx, step, window)
	t.latency.Observe(time.Since(start).Seconds())
	return verdict, err
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

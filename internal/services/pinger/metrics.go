package pinger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_cycles_total", Help: "Completed cycles by result",
	}, []string{"result"})
	mCycleDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pinger_cycle_duration_seconds",
		Help:    "Wall time of one cycle including reconciliation",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	mCycleTargets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pinger_cycle_targets", Help: "Targets seen by the last cycle",
	}, []string{"state"})
	mPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinger_cycle_phase", Help: "Current cycle phase (0 idle .. 5 done, 6 failed)",
	})
	mInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinger_inflight_executions", Help: "Batch executions currently registered",
	})

	mExecFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_batch_execution_failures_total", Help: "Failed batch execution attempts",
	}, []string{"reason"})
	mSynthesized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinger_synthesized_outcomes_total", Help: "Outcomes synthesized after retries were exhausted",
	})
	mProbeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pinger_probe_latency_seconds",
		Help:    "Round trip of successful probes",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	mTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_transitions_total", Help: "Applied status transitions by new status",
	}, []string{"to"})
	mTransitionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinger_transition_errors_total", Help: "Transitions whose storage writes failed",
	})
	mMissingOpen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinger_missing_open_downtime_total", Help: "Down to up transitions without an open downtime event",
	})
	mUpdateShortfall = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinger_status_update_shortfall_total", Help: "Status updates requested but not applied",
	})

	mTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinger_cycle_triggers_total", Help: "Cycle starts by trigger source",
	}, []string{"source"})
)

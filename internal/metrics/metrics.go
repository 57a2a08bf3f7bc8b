// Package metrics exposes prometheus instrumentation for publishing runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks per-ticker outcomes and run durations. A nil Recorder is
// safe to use and records nothing.
type Recorder struct {
	outcomes    *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewRecorder creates a Recorder and registers its collectors.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_publisher",
			Name:      "ticker_outcomes_total",
			Help:      "Ticker attempt outcomes by profile and status.",
		}, []string{"profile", "status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stock_publisher",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of publishing runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(r.outcomes, r.runDuration)
	return r
}

// RecordOutcome counts one terminal ticker state for a profile.
func (r *Recorder) RecordOutcome(profile, status string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(profile, status).Inc()
}

// RecordRun observes a completed run's duration.
func (r *Recorder) RecordRun(d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Observe(d.Seconds())
}

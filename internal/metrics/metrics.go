package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeCompleted labels runs that produced a report, including funnel drop-offs.
	OutcomeCompleted = "completed"
	// OutcomeFailed labels runs aborted by session or pipeline failures.
	OutcomeFailed = "failed"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnel_probe",
			Name:      "runs_total",
			Help:      "Total number of funnel runs handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "funnel_probe",
			Name:      "run_seconds",
			Help:      "Full funnel run latency in seconds.",
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 180, 300},
		},
	)

	dropOffsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnel_probe",
			Name:      "drop_offs_total",
			Help:      "Funnel drop-offs partitioned by the stage that failed.",
		},
		[]string{"stage"},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "funnel_probe",
			Name:      "findings_total",
			Help:      "Findings emitted by the classifier, partitioned by category.",
		},
		[]string{"category"},
	)
)

// Register attaches funnel-probe collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		runDurationSeconds,
		dropOffsTotal,
		findingsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRun records a run duration and outcome label.
func ObserveRun(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeFailed {
		label = OutcomeCompleted
	}
	runsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveDropOff counts a funnel drop-off at the named stage.
func ObserveDropOff(stage string) {
	if stage == "" {
		return
	}
	dropOffsTotal.WithLabelValues(stage).Inc()
}

// ObserveFinding counts a classified finding by category.
func ObserveFinding(category string) {
	if category == "" {
		return
	}
	findingsTotal.WithLabelValues(category).Inc()
}

// internal/actions/metrics.go
package actions

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xkilldash9x/stepwise/api/schemas"
)

var (
	metricSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Name:      "steps_total",
		Help:      "Executed steps by action type and outcome.",
	}, []string{"action", "outcome"})
	metricStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stepwise",
		Name:      "step_duration_seconds",
		Help:      "Wall-clock duration of executed steps.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
	}, []string{"action"})
	metricSequences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Name:      "sequences_total",
		Help:      "Sequence runs by outcome (success, failure, invalid).",
	}, []string{"outcome"})
	metricAssertions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepwise",
		Name:      "assertions_total",
		Help:      "Evaluated assertions by result.",
	}, []string{"result"})
)

func recordStep(result schemas.StepResult, elapsed time.Duration) {
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	metricSteps.WithLabelValues(result.Action, outcome).Inc()
	metricStepDuration.WithLabelValues(result.Action).Observe(elapsed.Seconds())

	if o, ok := assertionOutcome(result.Result); ok {
		label := "failed"
		if o.Passed {
			label = "passed"
		}
		metricAssertions.WithLabelValues(label).Inc()
	}
}

func recordSequence(outcome string) {
	metricSequences.WithLabelValues(outcome).Inc()
}

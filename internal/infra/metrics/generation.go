package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		invoicesGeneratedTotal,
		generationFailuresTotal,
		generationPassDuration,
		generationPassesTotal,
	)
}

var (
	invoicesGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_generated_total",
			Help: "Invoices created from recurring subscriptions.",
		},
		[]string{"trigger"}, // 'pass', 'manual'
	)

	generationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_failures_total",
			Help: "Per-subscription failures during generation passes.",
		},
	)

	generationPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_pass_duration_seconds",
			Help:    "Duration of full generation passes.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	generationPassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_passes_total",
			Help: "Total generation passes executed.",
		},
	)
)

func IncInvoicesGenerated(trigger string, count int) {
	invoicesGeneratedTotal.WithLabelValues(trigger).Add(float64(count))
}

func IncGenerationFailures(count int) {
	generationFailuresTotal.Add(float64(count))
}

func ObserveGenerationPass(seconds float64) {
	generationPassesTotal.Inc()
	generationPassDuration.Observe(seconds)
}

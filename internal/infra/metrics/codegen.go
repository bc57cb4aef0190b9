package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(codesGeneratedTotal, codegenShortfallTotal, codegenAttempts)
}

var (
	codesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "serial_codes_generated_total",
			Help: "Unique activation codes produced by the generator.",
		},
	)

	codegenShortfallTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "serial_codegen_shortfall_total",
			Help: "Codes requested but not produced because the retry budget ran out.",
		},
	)

	codegenAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serial_codegen_attempts",
			Help:    "Candidate draws spent per generation run.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
	)
)

// ObserveGeneration records one generator run.
func ObserveGeneration(produced, shortfall, attempts int) {
	codesGeneratedTotal.Add(float64(produced))
	if shortfall > 0 {
		codegenShortfallTotal.Add(float64(shortfall))
	}
	codegenAttempts.Observe(float64(attempts))
}

package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain-level collectors for the execution engine. The HTTP middleware owns
// the transport metrics; these track what the engine actually did with each
// endpoint regardless of which surface triggered it.
var (
	// ExecutionsTotal counts endpoint executions by outcome:
	// "completed", "failed", or "rate_limited".
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suiterunner",
			Name:      "endpoint_executions_total",
			Help:      "Total endpoint executions by outcome.",
		},
		[]string{"outcome"},
	)

	// BatchesInflight gauges concurrent batch runs across all suites.
	BatchesInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "suiterunner",
			Name:      "batches_inflight",
			Help:      "Number of suite batch runs currently executing.",
		},
	)
)

func init() {
	prometheus.MustRegister(ExecutionsTotal, BatchesInflight)
}

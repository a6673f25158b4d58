package metrics

import (
	"fmt"
	"time"

	"property-desk/api"
	"property-desk/engine"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects endpoint execution metrics in its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	executions *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New creates a Recorder. templates, when non-nil, is sampled for the
// compiled template gauge.
func New(templates func() int) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		Registry: reg,
		executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_desk_executions_total",
				Help: "Endpoint executions by outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_desk_failures_total",
				Help: "Failed endpoint executions by error kind",
			},
			[]string{"endpoint", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "property_desk_execution_seconds",
				Help:    "Endpoint execution time including prompts",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"endpoint"},
		),
	}

	if templates != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "property_desk_compiled_templates",
				Help: "Statement templates currently compiled",
			},
			func() float64 { return float64(templates()) },
		)
	}

	return r
}

// Observe implements api.Observer.
func (r *Recorder) Observe(endpoint string, status api.Status, kind engine.Kind, elapsed time.Duration) {
	r.executions.WithLabelValues(endpoint, status.String()).Inc()
	if status == api.Failed {
		r.failures.WithLabelValues(endpoint, string(kind)).Inc()
	}
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// WriteFile writes the current metrics in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

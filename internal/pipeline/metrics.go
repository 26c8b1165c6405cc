package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline activity in its own Prometheus registry and
// implements Observer.
type Metrics struct {
	registry     *prometheus.Registry
	stepDuration *prometheus.HistogramVec
	steps        *prometheus.CounterVec
	retries      *prometheus.CounterVec
	polls        *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "siteforge",
				Subsystem: "pipeline",
				Name:      "step_duration_seconds",
				Help:      "Duration of pipeline steps in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
			},
			[]string{"step"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "siteforge",
				Subsystem: "pipeline",
				Name:      "steps_total",
				Help:      "Total number of pipeline steps by result",
			},
			[]string{"step", "result"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "siteforge",
				Subsystem: "pipeline",
				Name:      "retries_total",
				Help:      "Total number of retried remote calls by operation",
			},
			[]string{"operation"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "siteforge",
				Subsystem: "pipeline",
				Name:      "polls_total",
				Help:      "Total number of status polls by resource",
			},
			[]string{"resource"},
		),
	}
	m.registry.MustRegister(m.stepDuration, m.steps, m.retries, m.polls)
	return m
}

// Registry exposes the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Event implements Observer.
func (m *Metrics) Event(e Event) {
	switch e.Type {
	case EventStepCompleted:
		m.steps.WithLabelValues(e.Step, "success").Inc()
		m.stepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
	case EventStepFailed:
		m.steps.WithLabelValues(e.Step, "failure").Inc()
		m.stepDuration.WithLabelValues(e.Step).Observe(e.Duration.Seconds())
	case EventStepSkipped:
		m.steps.WithLabelValues(e.Step, "skipped").Inc()
	}
}

// RetryHook returns a retry.Policy OnRetry callback counting retries of
// operation.
func (m *Metrics) RetryHook(operation string) func(attempt int, err error, delay time.Duration) {
	c := m.retries.WithLabelValues(operation)
	return func(int, error, time.Duration) { c.Inc() }
}

// PollHook counts one poll of resource. It matches the managers' poll hooks.
func (m *Metrics) PollHook(resource string) {
	m.polls.WithLabelValues(resource).Inc()
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

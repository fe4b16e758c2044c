package metrics

import (
	"net/http"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes decision evaluation metrics on its own registry.
type Collector struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	matched     *prometheus.HistogramVec
	duration    *prometheus.HistogramVec
}

// NewCollector registers the decision metrics. A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: registry,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decisions",
			Name:      "evaluations_total",
			Help:      "Decision table evaluations by decision key and hit policy.",
		}, []string{"decision", "hit_policy"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decisions",
			Name:      "evaluation_failures_total",
			Help:      "Decision table evaluations that returned an error.",
		}, []string{"decision"}),
		matched: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "decisions",
			Name:      "results",
			Help:      "Number of results produced per evaluation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, []string{"decision"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "decisions",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating one decision table.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"decision"}),
	}
	registry.MustRegister(c.evaluations, c.failures, c.matched, c.duration)
	return c
}

func (c *Collector) ObserveEvaluation(e *domain.DecisionEvaluation) {
	c.evaluations.WithLabelValues(e.DecisionKey, string(e.HitPolicy)).Inc()
	c.duration.WithLabelValues(e.DecisionKey).Observe(e.Duration.Seconds())
	if e.Error != "" {
		c.failures.WithLabelValues(e.DecisionKey).Inc()
		return
	}
	c.matched.WithLabelValues(e.DecisionKey).Observe(float64(e.Result.Len()))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

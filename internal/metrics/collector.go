package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"konbini-planner/internal/shared"
)

// Collector exposes plan and model metrics to Prometheus.
type Collector struct {
	registry *prometheus.Registry

	plans     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	deviation *prometheus.HistogramVec
	price     *prometheus.HistogramVec
	tokens    *prometheus.CounterVec
}

// NewCollector registers the planner metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "konbini_plans_total",
				Help: "Plan requests by store and outcome",
			},
			[]string{"store", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "konbini_plan_duration_seconds",
				Help:    "Time spent computing a plan",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"store"},
		),
		deviation: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "konbini_plan_deviation_kcal",
				Help:    "Distance between the chosen plan and the daily target",
				Buckets: []float64{0, 5, 10, 25, 50, 100, 200, 400},
			},
			[]string{"store"},
		),
		price: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "konbini_plan_price_yen",
				Help:    "Total price of the chosen plan",
				Buckets: prometheus.LinearBuckets(300, 300, 10),
			},
			[]string{"store"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "konbini_llm_tokens_total",
				Help: "Tokens consumed by model-backed components",
			},
			[]string{"agent", "kind"},
		),
	}

	registry.MustRegister(
		c.plans, c.duration, c.deviation, c.price, c.tokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordPlan implements Recorder.
func (c *Collector) RecordPlan(_ context.Context, m PlanMetric) error {
	c.plans.WithLabelValues(m.Store, m.Outcome).Inc()
	c.duration.WithLabelValues(m.Store).Observe(m.Latency.Seconds())
	if m.Outcome == OutcomeOK {
		c.deviation.WithLabelValues(m.Store).Observe(float64(m.Deviation))
		c.price.WithLabelValues(m.Store).Observe(float64(m.Price))
	}
	return nil
}

// RecordMeta implements Recorder.
func (c *Collector) RecordMeta(meta shared.AgentMeta) error {
	c.tokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.tokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
	return nil
}

// Multi fans every record out to all recorders, skipping nils.
type Multi []Recorder

// NewMulti drops nil recorders.
func NewMulti(recorders ...Recorder) Multi {
	var m Multi
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m Multi) RecordPlan(ctx context.Context, pm PlanMetric) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordPlan(ctx, pm); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RecordMeta(meta shared.AgentMeta) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordMeta(meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

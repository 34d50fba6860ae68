package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/ultracard/pkg/domain"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	diagnostics *prometheus.HistogramVec
	mutations   *prometheus.CounterVec
	templates   *prometheus.CounterVec
	visibility  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultracard_validations_total",
				Help: "Total number of card validations",
			},
			[]string{"valid"},
		),
		diagnostics: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ultracard_validation_diagnostics",
				Help:    "Diagnostics reported per validation",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"severity"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultracard_mutations_total",
				Help: "Total number of layout operations",
			},
			[]string{"op", "changed"},
		),
		templates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultracard_template_queries_total",
				Help: "Total number of template queries",
			},
			[]string{"result", "cached"},
		),
		visibility: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ultracard_visibility_evaluations_total",
				Help: "Total number of node visibility decisions",
			},
			[]string{"mode", "visible"},
		),
	}
	m.registry.MustRegister(m.validations, m.diagnostics, m.mutations, m.templates, m.visibility)
	return m
}

// Registry exposes the underlying registry, mostly for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record every event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnValidate: func(_ context.Context, e *domain.ValidationEvent) {
			m.validations.WithLabelValues(strconv.FormatBool(e.Valid)).Inc()
			m.diagnostics.WithLabelValues(string(domain.SeverityError)).Observe(float64(e.Errors))
			m.diagnostics.WithLabelValues(string(domain.SeverityWarning)).Observe(float64(e.Warnings))
		},
		OnMutation: func(_ context.Context, e *domain.MutationEvent) {
			m.mutations.WithLabelValues(e.Op, strconv.FormatBool(e.Changed)).Inc()
		},
		OnTemplate: func(_ context.Context, e *domain.TemplateEvent) {
			result := strconv.FormatBool(e.Result)
			if e.IsError {
				result = "error"
			}
			m.templates.WithLabelValues(result, strconv.FormatBool(e.Cached)).Inc()
		},
		OnEvaluate: func(_ context.Context, e *domain.EvaluationEvent) {
			m.visibility.WithLabelValues(e.Mode, strconv.FormatBool(e.Visible)).Inc()
		},
	}
}

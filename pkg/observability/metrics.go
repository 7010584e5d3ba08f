/*
Package observability provides the Prometheus collectors for the compiler and
the runtime traversal engine.
*/
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// Metrics bundles the collectors the engine reports into.
type Metrics struct {
	CompilationsTotal  *prometheus.CounterVec
	CompileIssuesTotal *prometheus.CounterVec
	CompileDuration    prometheus.Histogram
	TraversalsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Pass nil to skip
// registration (tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CompilationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cicerone",
			Name:      "compilations_total",
			Help:      "Scenario compilations by authoring format and outcome.",
		}, []string{"format", "outcome"}),
		CompileIssuesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cicerone",
			Name:      "compile_issues_total",
			Help:      "Non-fatal compilation issues by code.",
		}, []string{"code"}),
		CompileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cicerone",
			Name:      "compile_duration_seconds",
			Help:      "Wall time of one scenario compilation.",
			Buckets:   prometheus.DefBuckets,
		}),
		TraversalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cicerone",
			Name:      "traversals_total",
			Help:      "Runtime traversal steps by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.CompilationsTotal, m.CompileIssuesTotal, m.CompileDuration, m.TraversalsTotal)
	}
	return m
}

// ObserveCompile records one compilation.
func (m *Metrics) ObserveCompile(format domain.SourceFormat, issues []domain.Issue, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CompilationsTotal.WithLabelValues(string(format), outcome).Inc()
	m.CompileDuration.Observe(took.Seconds())
	for _, issue := range issues {
		m.CompileIssuesTotal.WithLabelValues(string(issue.Code)).Inc()
	}
}

// ObserveTraversal records one traversal step.
func (m *Metrics) ObserveTraversal(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.TraversalsTotal.WithLabelValues(outcome).Inc()
}

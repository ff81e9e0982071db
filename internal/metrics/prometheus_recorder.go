package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	entriesParsed prom.Counter
	linesSkipped  prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on the
// given registry (a fresh one when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "navbuilder",
		Name:      "build_duration_seconds",
		Help:      "Total navigation build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "navbuilder",
		Name:      "build_outcomes_total",
		Help:      "Navigation build outcomes by final status",
	}, []string{"outcome"})
	pr.entriesParsed = prom.NewCounter(prom.CounterOpts{
		Namespace: "navbuilder",
		Name:      "entries_parsed_total",
		Help:      "Navigation entries parsed from the annotated index",
	})
	pr.linesSkipped = prom.NewCounter(prom.CounterOpts{
		Namespace: "navbuilder",
		Name:      "lines_skipped_total",
		Help:      "Annotated index lines skipped (non-bullet or unparsable)",
	})
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.entriesParsed, pr.linesSkipped)
	return pr
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncBuildOutcome(outcome string) {
	pr.buildOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) AddEntriesParsed(n int) {
	pr.entriesParsed.Add(float64(n))
}

func (pr *PrometheusRecorder) AddLinesSkipped(n int) {
	pr.linesSkipped.Add(float64(n))
}

// Handler exposes the recorder's registry for scraping (watch mode).
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}

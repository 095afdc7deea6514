// Package metrics exposes ledger computation and invoice write metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name
const Namespace = "ledger"

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Metrics holds the ledger's Prometheus collectors on a private registry.
// Safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	reportsTotal          *prometheus.CounterVec
	reportDurationSeconds *prometheus.HistogramVec
	invoiceSavesTotal     *prometheus.CounterVec
	stockCorrectionsTotal prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
	httpDurationSeconds   *prometheus.HistogramVec
}

// New creates the collectors and registers them together with the Go runtime collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "reports_total",
				Help:      "Number of derived reports computed, by report and outcome.",
			},
			[]string{"report", "outcome"},
		),
		reportDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "report_duration_seconds",
				Help:      "Time spent fetching records and computing a report.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"report"},
		),
		invoiceSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "invoice_writes_total",
				Help:      "Invoice saves and deletes, by operation, kind and outcome.",
			},
			[]string{"operation", "kind", "outcome"},
		),
		stockCorrectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "stock_corrections_total",
				Help:      "Cached item quantities rewritten by a ledger recompute.",
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests served, by method, route and status code.",
			},
			[]string{"method", "route", "status_code"},
		),
		httpDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.reportsTotal,
		m.reportDurationSeconds,
		m.invoiceSavesTotal,
		m.stockCorrectionsTotal,
		m.httpRequestsTotal,
		m.httpDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveReport records one report computation
func (m *Metrics) ObserveReport(report string, elapsed time.Duration, err error) {
	m.reportsTotal.WithLabelValues(report, outcome(err)).Inc()
	m.reportDurationSeconds.WithLabelValues(report).Observe(elapsed.Seconds())
}

// ObserveInvoiceWrite records one invoice save or delete
func (m *Metrics) ObserveInvoiceWrite(operation, kind, result string) {
	m.invoiceSavesTotal.WithLabelValues(operation, kind, result).Inc()
}

// AddStockCorrections counts cached quantities rewritten by a recompute
func (m *Metrics) AddStockCorrections(n int) {
	m.stockCorrectionsTotal.Add(float64(n))
}

// ObserveHTTPRequest records one served request. Route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "buildtrack",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildtrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildtrack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	phaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildtrack",
			Subsystem: "phases",
			Name:      "transitions_total",
			Help:      "Phase status transitions by target status.",
		},
		[]string{"status"},
	)

	paymentTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildtrack",
			Subsystem: "payments",
			Name:      "transitions_total",
			Help:      "Payment status transitions by target status.",
		},
		[]string{"status"},
	)

	paidAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "buildtrack",
			Subsystem: "payments",
			Name:      "paid_amount_total",
			Help:      "Sum of amounts moved into the paid status.",
		},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildtrack",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by job and outcome.",
		},
		[]string{"job", "success"},
	)

	ledgerDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "buildtrack",
			Subsystem: "ledger",
			Name:      "drift_corrections_total",
			Help:      "Projects whose stored spent amount disagreed with paid payments.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		phaseTransitions,
		paymentTransitions,
		paidAmount,
		jobRuns,
		ledgerDrift,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one finished request against its route template.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordPhaseTransition(status string) {
	phaseTransitions.WithLabelValues(status).Inc()
}

// RecordPaymentTransition counts a status change; amount is added when it lands on paid.
func RecordPaymentTransition(status string, amount float64) {
	paymentTransitions.WithLabelValues(status).Inc()
	if status == "paid" && amount > 0 {
		paidAmount.Add(amount)
	}
}

func RecordJobRun(job string, success bool) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
}

func RecordLedgerDrift() {
	ledgerDrift.Inc()
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Ledger metrics
	LedgerBatchesTotal  *prometheus.CounterVec
	LedgerBatchDuration prometheus.Histogram
	LedgerAmountTotal   *prometheus.CounterVec

	// Distribution metrics
	DistributionsTotal *prometheus.CounterVec
	RepairsTotal       *prometheus.CounterVec
	RetryQueueDepth    prometheus.Gauge
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LedgerBatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_batches_total",
				Help: "Ledger batches by outcome",
			},
			[]string{"outcome"},
		),
		LedgerBatchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_batch_duration_seconds",
				Help:    "Time spent inside a ledger batch transaction",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		LedgerAmountTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_amount_total",
				Help: "Absolute PKR moved by transaction type",
			},
			[]string{"type"},
		),
		DistributionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "distributions_total",
				Help: "Task income and upgrade distributions by outcome",
			},
			[]string{"kind", "outcome"},
		),
		RepairsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repairs_total",
				Help: "Replayed distributions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		RetryQueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "commission_retry_queue_depth",
				Help: "Upgrade commission batches waiting for retry",
			},
		),
	}
}

func (m *Metrics) ObserveBatch(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.LedgerBatchesTotal.WithLabelValues(outcome).Inc()
	m.LedgerBatchDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) AddAmount(txType string, amount int64) {
	if m == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.LedgerAmountTotal.WithLabelValues(txType).Add(float64(amount))
}

func (m *Metrics) Distribution(kind, outcome string) {
	if m == nil {
		return
	}
	m.DistributionsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Repair(kind, outcome string) {
	if m == nil {
		return
	}
	m.RepairsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) SetRetryQueueDepth(n int64) {
	if m == nil {
		return
	}
	m.RetryQueueDepth.Set(float64(n))
}

// Middleware records request counts and latency keyed by the chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

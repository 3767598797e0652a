package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the API and the settlement engine.
type Metrics struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	expensesCreated      *prometheus.CounterVec
	settlementsConfirmed prometheus.Counter
	splitsSettled        prometheus.Counter
}

// NewMetrics initialises the registry and all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsplit_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripsplit_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	expenses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tripsplit_expenses_created_total",
		Help: "Expenses created by split mode.",
	}, []string{"mode"})
	confirmed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_settlements_confirmed_total",
		Help: "Settlements confirmed by their recipient.",
	})
	splits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tripsplit_splits_settled_total",
		Help: "Expense splits marked paid through settlement fan-out.",
	})
	registry.MustRegister(requests, duration, expenses, confirmed, splits)
	return &Metrics{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:        requests,
		requestDuration:      duration,
		expensesCreated:      expenses,
		settlementsConfirmed: confirmed,
		splitsSettled:        splits,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ExpenseCreated counts a newly created expense.
func (m *Metrics) ExpenseCreated(mode string) {
	if m == nil {
		return
	}
	m.expensesCreated.WithLabelValues(mode).Inc()
}

// SettlementConfirmed counts a confirmation and the splits it cleared.
func (m *Metrics) SettlementConfirmed(splitsCleared int) {
	if m == nil {
		return
	}
	m.settlementsConfirmed.Inc()
	m.splitsSettled.Add(float64(splitsCleared))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

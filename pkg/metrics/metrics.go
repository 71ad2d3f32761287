// Package metrics exposes the process's Prometheus collectors: one set for
// the HTTP façade, one for the reconciliation cycle itself.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the process registers.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	CyclesTotal    *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec
	DiffSize       *prometheus.HistogramVec
	ProbesTotal    *prometheus.CounterVec
	DeadLetterSize *prometheus.GaugeVec
}

// New registers every collector against the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers every collector against registerer, so tests can
// use a private registry instead of prometheus.DefaultRegisterer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gwsyncer_http_requests_total",
			Help: "Total HTTP requests served by the façade.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gwsyncer_http_request_duration_seconds",
			Help:    "HTTP request duration.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gwsyncer_http_requests_in_flight",
			Help: "HTTP requests currently being processed.",
		}),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gwsyncer_cycles_total",
			Help: "Reconciliation cycles run, by target and outcome.",
		}, []string{"target", "outcome"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gwsyncer_cycle_duration_seconds",
			Help:    "Reconciliation cycle duration per target.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"target"}),
		DiffSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gwsyncer_diff_size",
			Help:    "Number of instances pushed to the gateway per service reconciliation.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"target", "service"}),
		ProbesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gwsyncer_health_probes_total",
			Help: "Health probes run, by outcome.",
		}, []string{"target", "outcome"}),
		DeadLetterSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gwsyncer_queue_dead_letter_size",
			Help: "Current dead-letter ring occupancy per named queue.",
		}, []string{"queue"}),
	}

	registerer.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.RequestsInFlight,
		m.CyclesTotal, m.CycleDuration, m.DiffSize,
		m.ProbesTotal, m.DeadLetterSize,
	)
	return m
}

// HTTPMiddleware wraps every façade request with in-flight/duration/count
// collectors, grouping by the matched route template rather than the raw
// path so parameterized routes don't blow up label cardinality.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

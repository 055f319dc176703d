// Package metrics holds the Prometheus collectors of the flower server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowerdaily"

// unmatchedRoute labels requests that no route matched.
const unmatchedRoute = "unmatched"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestLatency *prometheus.HistogramVec
	selectionBatches   *prometheus.CounterVec
	selectionFlowers   prometheus.Counter
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Histogram of latencies for HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
		selectionBatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selection_batches_total",
				Help:      "Number of random selections, by outcome.",
			},
			[]string{"result"},
		),
		selectionFlowers: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "selection_flowers_total",
				Help:      "Number of flowers handed out by random selections.",
			},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestLatency,
		m.selectionBatches,
		m.selectionFlowers,
	)
	// Expose both outcomes from the first scrape.
	m.selectionBatches.WithLabelValues("served")
	m.selectionBatches.WithLabelValues("finished")
	return m
}

// ObserveBatch records the outcome of one selection.
func (m *Metrics) ObserveBatch(finished bool, size int) {
	if finished {
		m.selectionBatches.WithLabelValues("finished").Inc()
		return
	}
	m.selectionBatches.WithLabelValues("served").Inc()
	m.selectionFlowers.Add(float64(size))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument measures request latency labelled with the chi route pattern,
// so that /admin/flowers/{id} is one series regardless of the ID.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestLatency.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

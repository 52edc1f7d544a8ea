// Package metrics registers the daemon's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TelemetryMessages counts live records received, by kind and result
	// (applied, removed, rejected).
	TelemetryMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwise_telemetry_messages_total",
			Help: "Live telemetry records received.",
		},
		[]string{"kind", "result"},
	)

	// Projections counts location projections delivered to listeners.
	Projections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwise_projections_total",
			Help: "Slot projections delivered per location.",
		},
		[]string{"location_id"},
	)

	// Transitions counts slot status changes by target status.
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwise_slot_transitions_total",
			Help: "Slot status transitions by new status.",
		},
		[]string{"location_id", "status"},
	)

	// SlotsByStatus is the number of active slots in each status.
	SlotsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockwise_slots",
			Help: "Active slots per status.",
		},
		[]string{"location_id", "status"},
	)

	// ViewStores is the number of live view stores held by the web cache.
	ViewStores = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockwise_view_stores",
		Help: "Live location views held in the web cache.",
	})

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockwise_http_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockwise_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Middleware records request counts and latency labelled by chi route
// pattern, so IDs in paths do not create new series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Package metrics holds the Prometheus collectors shared by the server and
// the notification worker. Every method is safe on a nil *Metrics so callers
// can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitsmart"

// Outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

type Metrics struct {
	Registry      *prometheus.Registry
	Mutations     *prometheus.CounterVec
	Snapshots     *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	Deliveries    *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Trips         prometheus.Gauge
}

// New creates collectors registered on a private registry together with
// the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Trip and expense mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_saves_total",
			Help:      "Snapshot saves by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Dispatched notifications by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_deliveries_total",
			Help:      "Emails delivered by the notification worker by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Trips: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trips",
			Help:      "Number of trips currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.Mutations,
		m.Snapshots,
		m.Notifications,
		m.Deliveries,
		m.HTTPRequests,
		m.HTTPDuration,
		m.Trips,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) Mutation(op string, err error) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) SnapshotSaved(err error) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) Notification(kind, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Delivery(err error) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) SetTrips(n int) {
	if m == nil {
		return
	}
	m.Trips.Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carries the service metrics on a private registry so
// the exposition endpoint only reports what this process registers.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	lookupsTotal    *prometheus.CounterVec
	profilesTotal   *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realmd_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "realmd_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realmd_lookups_total",
			Help: "Invite code lookups by outcome.",
		}, []string{"outcome"}),
		profilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realmd_profile_lookups_total",
			Help: "Profile lookups by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realmd_rate_limited_total",
			Help: "Requests rejected by the hard rate limit.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.lookupsTotal,
		m.profilesTotal,
		m.rateLimited,
	)

	return m
}

// Handler exposes the private registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(dur.Seconds())
}

func (m *Metrics) IncLookup(outcome string) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncProfile(outcome string) {
	if m == nil {
		return
	}
	m.profilesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

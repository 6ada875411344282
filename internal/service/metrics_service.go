package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
)

// MetricsService owns the Prometheus collectors for the HTTP layer and the
// complaint engine. Every method is safe on a nil receiver.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	mutations        *prometheus.CounterVec
	versionConflicts prometheus.Counter
	transitions      *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	dispatchDropped  prometheus.Counter
	dispatchQueued   prometheus.Gauge
	liveSubscribers  prometheus.Gauge
}

var httpLabels = []string{"method", "path", "status"}

// NewMetricsService builds an isolated registry with Go runtime and process collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(registry)

	return &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern",
			Buckets: prometheus.DefBuckets,
		}, httpLabels),
		requestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern",
		}, httpLabels),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_cache_lookups_total",
			Help: "Contact cache lookups by result",
		}, []string{"result"}),
		cacheLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "contact_cache_latency_seconds",
			Help:    "Latency for contact cache reads",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_mutations_total",
			Help: "Complaint mutations by operation and outcome",
		}, []string{"operation", "outcome"}),
		versionConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "complaint_version_conflicts_total",
			Help: "Writes rejected because the complaint version moved",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_status_transitions_total",
			Help: "Committed status transitions",
		}, []string{"from", "to"}),
		dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_side_effects_total",
			Help: "Side-effect deliveries by channel and outcome",
		}, []string{"channel", "outcome"}),
		dispatchDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "complaint_side_effects_dropped_total",
			Help: "Events not queued because the dispatcher was saturated or stopped",
		}),
		dispatchQueued: f.NewGauge(prometheus.GaugeOpts{
			Name: "complaint_side_effects_queued",
			Help: "Side effects waiting for a dispatcher worker",
		}),
		liveSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "complaint_live_subscribers",
			Help: "Connected live feed subscribers",
		}),
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a contact cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordMutation counts an orchestrated operation by outcome.
func (m *MetricsService) RecordMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
	if outcome == outcomeConflict {
		m.versionConflicts.Inc()
	}
}

// RecordTransition counts a committed status change.
func (m *MetricsService) RecordTransition(from, to models.ComplaintStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// RecordDispatch counts a delivery attempt on a side-effect channel.
func (m *MetricsService) RecordDispatch(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.dispatches.WithLabelValues(channel, outcome).Inc()
}

// SetDispatchQueued reports the dispatcher backlog.
func (m *MetricsService) SetDispatchQueued(n int) {
	if m == nil {
		return
	}
	m.dispatchQueued.Set(float64(n))
}

// RecordDispatchDropped counts events that never reached the worker pool.
func (m *MetricsService) RecordDispatchDropped() {
	if m == nil {
		return
	}
	m.dispatchDropped.Inc()
}

// AddLiveSubscribers moves the live subscriber gauge by delta.
func (m *MetricsService) AddLiveSubscribers(delta int) {
	if m == nil {
		return
	}
	m.liveSubscribers.Add(float64(delta))
}

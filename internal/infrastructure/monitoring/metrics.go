package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// HTTP
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Domain
	SessionsTotal     prometheus.Gauge
	SavesTotal        *prometheus.CounterVec
	RestoresTotal     prometheus.Counter
	AutoSaveEvictions prometheus.Counter
	ImportsAccepted   prometheus.Counter
	UndoTotal         *prometheus.CounterVec
	StorageBytes      prometheus.Gauge

	// WebSocket
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// New creates metrics registered on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered on reg. Tests pass a
// private registry so parallel packages do not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsaver_http_requests_total",
			Help: "Total HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tabsaver_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabsaver_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),

		SessionsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabsaver_sessions_total",
			Help: "Number of sessions currently stored.",
		}),
		SavesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsaver_saves_total",
			Help: "Sessions saved, by trigger.",
		}, []string{"trigger"}),
		RestoresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsaver_restores_total",
			Help: "Sessions restored into the browser.",
		}),
		AutoSaveEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsaver_autosave_evictions_total",
			Help: "Auto-saved sessions evicted by the retention cap.",
		}),
		ImportsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabsaver_imports_accepted_total",
			Help: "Sessions accepted from import documents.",
		}),
		UndoTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsaver_undo_total",
			Help: "Undo attempts, by outcome.",
		}, []string{"outcome"}),
		StorageBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabsaver_storage_bytes",
			Help: "Bytes used by the persisted session document.",
		}),

		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabsaver_ws_connections",
			Help: "Active WebSocket connections.",
		}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabsaver_ws_messages_total",
			Help: "WebSocket messages, by direction.",
		}, []string{"direction"}),
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "cohis").
	Namespace string

	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "cohis",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for HTTP traffic and live
// sessions. A nil *Metrics is valid and records nothing, so callers can pass
// nil when metrics are disabled.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	activeSessions prometheus.Gauge
	eventsTotal    *prometheus.CounterVec
	eventErrors    *prometheus.CounterVec
	updatesSent    *prometheus.CounterVec
	placements     *prometheus.CounterVec
	wsErrors       *prometheus.CounterVec
}

// NewMetrics registers the collectors with the configured registry.
//
// Metrics collected:
//   - cohis_http_requests_total: requests by route, method and status
//   - cohis_http_request_duration_seconds: request latency by route and method
//   - cohis_http_requests_in_flight: requests being served
//   - cohis_active_sessions: open live sessions
//   - cohis_session_events_total: client events by type
//   - cohis_session_event_errors_total: rejected client events by error code
//   - cohis_overlay_updates_total: widget updates sent by widget kind
//   - cohis_placements_total: placements computed by side
//   - cohis_websocket_errors_total: WebSocket errors by type
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		requestsTotal: counter("http_requests_total", "Total HTTP requests", "route", "method", "status"),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route", "method"}),
		inFlight: gauge("http_requests_in_flight", "HTTP requests currently being served"),

		activeSessions: gauge("active_sessions", "Number of open live sessions"),
		eventsTotal:    counter("session_events_total", "Client events processed", "type"),
		eventErrors:    counter("session_event_errors_total", "Client events rejected", "code"),
		updatesSent:    counter("overlay_updates_total", "Widget updates sent to clients", "kind"),
		placements:     counter("placements_total", "Placements computed", "side"),
		wsErrors:       counter("websocket_errors_total", "WebSocket errors by type", "type"),
	}
}

// Handler returns HTTP middleware recording request count, latency and
// in-flight requests. The route label is the chi route pattern, so path
// parameters do not explode cardinality.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// routePattern returns the matched chi pattern, or "unmatched" when no route
// handled the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// SessionClosed records a live session ending.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// RecordEvent records a processed client event.
func (m *Metrics) RecordEvent(eventType string) {
	if m != nil {
		m.eventsTotal.WithLabelValues(eventType).Inc()
	}
}

// RecordEventError records a rejected client event.
func (m *Metrics) RecordEventError(code string) {
	if m != nil {
		m.eventErrors.WithLabelValues(code).Inc()
	}
}

// RecordUpdate records a widget update sent to a client.
func (m *Metrics) RecordUpdate(kind string) {
	if m != nil {
		m.updatesSent.WithLabelValues(kind).Inc()
	}
}

// RecordPlacement records a computed placement.
func (m *Metrics) RecordPlacement(side string) {
	if m != nil {
		m.placements.WithLabelValues(side).Inc()
	}
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

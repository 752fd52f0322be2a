package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/uploads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestMetricsHandlerRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	r := newTestRouter(m)

	for _, path := range []string{"/uploads/a", "/uploads/b", "/healthz"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/uploads/{id}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/healthz", "GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestMetricsHandlerUnmatchedRoute(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	r := newTestRouter(m)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("unmatched", "GET", "404")))
}

func TestMetricsRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.RecordEvent("Pointer")
	m.RecordEvent("Pointer")
	m.RecordEventError("RateLimited")
	m.RecordUpdate("popconfirm")
	m.RecordPlacement("left")
	m.RecordWebSocketError("read")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("Pointer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventErrors.WithLabelValues("RateLimited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updatesSent.WithLabelValues("popconfirm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.placements.WithLabelValues("left")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsErrors.WithLabelValues("read")))

	expected := `
# HELP test_active_sessions Number of open live sessions
# TYPE test_active_sessions gauge
test_active_sessions 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_active_sessions"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SessionOpened()
		m.SessionClosed()
		m.RecordEvent("Mount")
		m.RecordEventError("InvalidEvent")
		m.RecordUpdate("tooltip")
		m.RecordPlacement("top")
		m.RecordWebSocketError("write")
	})

	called := false
	h := m.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestNewMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))
	assert.Panics(t, func() { NewMetrics(WithRegistry(reg)) })
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T, opts ...OTelOption) (*chi.Mux, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	r := chi.NewRouter()
	r.Use(OpenTelemetry(append([]OTelOption{WithTracerProvider(tp)}, opts...)...))
	r.Get("/api/v1/uploads/{id}", func(w http.ResponseWriter, r *http.Request) {
		if SpanFromContext(r.Context()) == nil {
			t.Error("handler should see the request span")
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})
	return r, rec
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestOpenTelemetryNamesSpanByRoute(t *testing.T) {
	r, rec := newTracedRouter(t, WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
		return []attribute.KeyValue{attribute.String("test.attr", "ok")}
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/uploads/42", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "GET /api/v1/uploads/{id}", s.Name())
	assert.Equal(t, "/api/v1/uploads/{id}", spanAttr(s, "http.route").AsString())
	assert.Equal(t, int64(500), spanAttr(s, "http.status_code").AsInt64())
	assert.Equal(t, "ok", spanAttr(s, "test.attr").AsString())
	assert.Equal(t, codes.Error, s.Status().Code)
}

func TestOpenTelemetryFilter(t *testing.T) {
	r, rec := newTracedRouter(t, WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz"
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Empty(t, rec.Ended())
}

func TestOpenTelemetryOkStatus(t *testing.T) {
	r, rec := newTracedRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, int64(200), spanAttr(spans[0], "http.status_code").AsInt64())
}

func TestSpanFromContextWithoutSpan(t *testing.T) {
	assert.Nil(t, SpanFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

// Package middleware provides HTTP observability for the cohis server.
//
// # Prometheus Metrics
//
// NewMetrics registers request and live-session collectors. Handler wraps a
// router; the Record* methods are called by the live session:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("cohis"))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.Handler())
//
// A nil *Metrics records nothing, which is how metrics are disabled.
//
// # OpenTelemetry Middleware
//
// OpenTelemetry starts a server span per request named after the chi route
// pattern and records the response status:
//
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("cohis"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
package middleware

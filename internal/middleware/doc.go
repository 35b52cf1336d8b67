// Package middleware provides the chi middleware stack of the status server:
// request IDs, structured request logging, panic recovery, rate limiting and
// OpenTelemetry tracing and metrics.
//
// Order matters. RequestID runs first so every later layer can read the ID
// from the context:
//
//	r.Use(middleware.RequestID)
//	r.Use(otelMiddleware.Handler)
//	r.Use(middleware.StructuredLogger(logger))
//	r.Use(middleware.Recoverer(logger))
package middleware

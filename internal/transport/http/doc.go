// Package http serves the status endpoints of a running batch.
//
// The server is optional and only starts when server.enabled is set. It
// exposes:
//
//	GET /healthz   liveness with version and uptime
//	GET /readyz    503 until the server is listening
//	GET /progress  snapshot of the current batch plus runtime stats
//	GET /metrics   Prometheus scrape endpoint when metrics are enabled
//
// Handlers stay thin: they read state from the runner and render it with
// go-chi/render. Error bodies use the internal/errors response shape.
package http

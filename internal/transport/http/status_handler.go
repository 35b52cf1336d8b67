package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "valuationcli/internal/errors"
	"valuationcli/internal/infrastructure"
	"valuationcli/internal/operations"
	"valuationcli/pkg/contracts"
)

// ProgressSource exposes the tracker of the running batch
type ProgressSource interface {
	Progress() *operations.ProgressTracker
}

// StatusHandler serves health, readiness and batch progress
type StatusHandler struct {
	source    ProgressSource
	startTime time.Time
	ready     atomic.Bool
	logger    *slog.Logger
}

// NewStatusHandler creates a status handler reading progress from source
func NewStatusHandler(source ProgressSource, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		source:    source,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "status_handler"),
	}
}

// SetReady flips the readiness probe
func (h *StatusHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status    string  `json:"status"`
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime_seconds"`
	Timestamp string  `json:"timestamp"`
}

// ProgressResponse is the body of GET /progress
type ProgressResponse struct {
	Progress operations.Progress       `json:"progress"`
	System   infrastructure.SystemStats `json:"system"`
}

// Routes mounts the status endpoints
func (h *StatusHandler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Get("/progress", h.Progress)
}

// Health handles GET /healthz
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Version:   contracts.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /readyz
func (h *StatusHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		apperrors.WriteError(w, apperrors.ErrServiceUnavailable)
		return
	}
	render.JSON(w, r, map[string]string{"status": "ready"})
}

// Progress handles GET /progress
func (h *StatusHandler) Progress(w http.ResponseWriter, r *http.Request) {
	tracker := h.source.Progress()
	if tracker == nil {
		h.logger.DebugContext(r.Context(), "progress requested before first batch")
		apperrors.WriteError(w, apperrors.FromAppError(
			apperrors.NewNotFoundError("batch progress").WithContext("reason", "no batch has started")))
		return
	}
	render.JSON(w, r, ProgressResponse{
		Progress: tracker.Snapshot(),
		System:   infrastructure.CollectSystemStats(h.startTime),
	})
}

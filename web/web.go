// Package web provides the operational HTTP surface: health probes and
// Prometheus metrics. The chat transport is long-polled, so no payment
// or command endpoints live here.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/contentpro/ideagate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handler serves the operational endpoints.
type Handler struct {
	users       ports.UserStore
	metricsPath string
	logger      zerolog.Logger
}

// NewHandler creates the operational HTTP handler.
func NewHandler(users ports.UserStore, metricsPath string, logger zerolog.Logger) *Handler {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Handler{
		users:       users,
		metricsPath: metricsPath,
		logger:      logger,
	}
}

// Router builds the chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Handle(h.metricsPath, promhttp.Handler())

	return r
}

// handleHealth reports process liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness by touching the user store.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	count, err := h.users.Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "users": count})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

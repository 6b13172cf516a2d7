package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/deliverus/api/internal/model"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health
type HealthHandler struct {
	store   Pinger
	driver  string
	timeout time.Duration
}

// HealthStatus is the body of a healthy response
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// NewHealthHandler creates a health handler for the given store
func NewHealthHandler(store Pinger, driver string) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, timeout: 2 * time.Second}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("health check failed", slog.String("database", h.driver), slog.String("error", err.Error()))
		WriteError(w, r, model.NewServiceUnavailableError("database unreachable"))
		return
	}

	WriteJSON(w, http.StatusOK, HealthStatus{Status: "ok", Database: h.driver})
}

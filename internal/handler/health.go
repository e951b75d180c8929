package handler

import (
	"context"
	"net/http"
)

// Pinger reports whether the datastore connection is alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"error":  "database unreachable",
			})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

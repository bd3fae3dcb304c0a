package handlers

import (
	"net/http"
	"time"

	"github.com/pribylovaa/credential-service/internal/transport/http/httperr"
)

// Health обрабатывает GET /health: проверяет БД и KV-хранилище.
// При недоступности любого из них — 503 "unhealthy".
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC().Format(time.RFC3339)

	if err := h.storage.Ping(ctx); err != nil {
		httperr.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"message":   "Database connection failed",
			"database":  "disconnected",
			"timestamp": now,
		})
		return
	}

	if err := h.kv.Ping(ctx); err != nil {
		httperr.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"message":   "Key-value store connection failed",
			"database":  "connected",
			"timestamp": now,
		})
		return
	}

	total, err := h.storage.CountUsers(ctx)
	if err != nil {
		httperr.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"message":   "Database connection failed",
			"database":  "disconnected",
			"timestamp": now,
		})
		return
	}

	httperr.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"message":     "Authentication API is running successfully",
		"database":    "connected",
		"total_users": total,
		"timestamp":   now,
	})
}

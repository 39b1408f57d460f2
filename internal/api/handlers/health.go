package handlers

import (
	"net/http"
	"trip-route-service/internal/services"
)

type HealthHandler struct {
	Sessions *services.Sessions
}

// Health provides a minimal liveness check endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"status":   "ok",
		"sessions": h.Sessions.Len(),
	}
	writeJSON(w, r, http.StatusOK, res)
}

package handlers

import (
	"net/http"
)

// HealthHandler serves GET /health.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates the handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// RegisterRoutes attaches the handler to the mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": h.version,
		})
	})
}

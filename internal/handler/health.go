package handler

import (
	"net/http"

	"go.uber.org/zap"
)

// Healthz handles GET /healthz. Liveness only; no dependencies checked.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz. Ready means the Keycloak admin session works.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.KC.Healthy(r.Context()); err != nil {
		h.Logger.Warn("readiness check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "NOT_READY", "keycloak unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

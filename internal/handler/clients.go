package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/middleware"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/reconcile"
)

// GetClient handles GET /api/v1/realms/{realm}/clients/{clientId}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	clientID := pathParam(r, "clientId")

	client, err := h.KC.GetClientByClientID(ctx, realm, clientID)
	if err != nil {
		h.Logger.Error("failed to get client", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, client)
}

// ApplyClient handles PUT /api/v1/realms/{realm}/clients/{clientId}
func (h *Handler) ApplyClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	clientID := pathParam(r, "clientId")

	var req model.ApplyClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	state, ok := normalizeState(req.State)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state must be present or absent")
		return
	}

	desired := model.Client{
		ClientID:    clientID,
		Name:        req.Name,
		Description: req.Description,
		Enabled:     true,
	}
	if req.Enabled != nil {
		desired.Enabled = *req.Enabled
	}
	if req.ServiceAccountsEnabled != nil {
		desired.ServiceAccountsEnabled = *req.ServiceAccountsEnabled
	}

	existing, err := h.KC.GetClientByClientID(ctx, realm, clientID)
	if err != nil && !keycloak.IsNotFound(err) {
		h.Logger.Error("failed to read client", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	plan := reconcile.PlanClient(h.KC, realm, desired, existing, state)

	changed, err := plan.Execute(ctx, h.Logger)
	if err != nil {
		h.Logger.Error("client reconcile failed", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	result := model.ApplyResult{
		Changed: changed,
		Msg:     plan.Actions[0].Msg,
	}
	if existing != nil {
		result.Existing = existing
	}
	if state == model.StatePresent {
		end, err := h.KC.GetClientByClientID(ctx, realm, clientID)
		if err != nil {
			h.Logger.Error("failed to re-read client", zap.Error(err),
				zap.String("realm", realm), zap.String("client_id", clientID),
				zap.String("request_id", middleware.GetRequestID(ctx)))
			writeKeycloakError(w, err)
			return
		}
		result.EndState = end
	}

	writeJSON(w, http.StatusOK, result)
}

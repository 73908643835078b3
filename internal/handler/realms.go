package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/middleware"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/reconcile"
)

// GetRealm handles GET /api/v1/realms/{realm}
func (h *Handler) GetRealm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realmName := pathParam(r, "realm")

	realm, err := h.KC.GetRealm(ctx, realmName)
	if err != nil {
		h.Logger.Error("failed to get realm", zap.Error(err), zap.String("realm", realmName),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, realm)
}

// ApplyRealm handles PUT /api/v1/realms/{realm}
func (h *Handler) ApplyRealm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realmName := pathParam(r, "realm")

	var req model.ApplyRealmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	state, ok := normalizeState(req.State)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state must be present or absent")
		return
	}

	desired := model.Realm{
		Realm:       realmName,
		DisplayName: req.DisplayName,
		Enabled:     true,
	}
	if req.Enabled != nil {
		desired.Enabled = *req.Enabled
	}

	existing, err := h.KC.GetRealm(ctx, realmName)
	if err != nil && !keycloak.IsNotFound(err) {
		h.Logger.Error("failed to read realm", zap.Error(err), zap.String("realm", realmName),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	plan := reconcile.PlanRealm(h.KC, desired, existing, state)

	changed, err := plan.Execute(ctx, h.Logger)
	if err != nil {
		h.Logger.Error("realm reconcile failed", zap.Error(err), zap.String("realm", realmName),
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
		end, err := h.KC.GetRealm(ctx, realmName)
		if err != nil {
			h.Logger.Error("failed to re-read realm", zap.Error(err), zap.String("realm", realmName),
				zap.String("request_id", middleware.GetRequestID(ctx)))
			writeKeycloakError(w, err)
			return
		}
		result.EndState = end
	}

	writeJSON(w, http.StatusOK, result)
}

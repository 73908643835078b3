package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/middleware"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/reconcile"
)

// ListGroups handles GET /api/v1/realms/{realm}/groups
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")

	groups, err := h.KC.GetGroups(ctx, realm)
	if err != nil {
		h.Logger.Error("failed to list groups", zap.Error(err), zap.String("realm", realm),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// GetGroup handles GET /api/v1/realms/{realm}/groups/{name}
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	name := pathParam(r, "name")

	group, err := h.KC.GetGroupByName(ctx, realm, name)
	if err != nil {
		h.Logger.Error("failed to get group", zap.Error(err),
			zap.String("realm", realm), zap.String("group", name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// ApplyGroup handles PUT /api/v1/realms/{realm}/groups/{name}
func (h *Handler) ApplyGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	name := pathParam(r, "name")

	var req model.ApplyGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	state, ok := normalizeState(req.State)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state must be present or absent")
		return
	}

	existing, err := h.KC.GetGroupByName(ctx, realm, name)
	if err != nil && !keycloak.IsNotFound(err) {
		h.Logger.Error("failed to read group", zap.Error(err),
			zap.String("realm", realm), zap.String("group", name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	plan := reconcile.PlanGroup(h.KC, realm, name, existing, state)

	changed, err := plan.Execute(ctx, h.Logger)
	if err != nil {
		h.Logger.Error("group reconcile failed", zap.Error(err),
			zap.String("realm", realm), zap.String("group", name),
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
		end, err := h.KC.GetGroupByName(ctx, realm, name)
		if err != nil {
			h.Logger.Error("failed to re-read group", zap.Error(err),
				zap.String("realm", realm), zap.String("group", name),
				zap.String("request_id", middleware.GetRequestID(ctx)))
			writeKeycloakError(w, err)
			return
		}
		result.EndState = end
	}

	writeJSON(w, http.StatusOK, result)
}

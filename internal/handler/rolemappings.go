package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/middleware"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/rolemapping"
)

// GetGroupRoleMappings handles GET /api/v1/realms/{realm}/groups/{name}/role-mappings
// An optional client_id query parameter selects client-scoped mappings.
func (h *Handler) GetGroupRoleMappings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := rolemapping.Request{
		Realm:     pathParam(r, "realm"),
		GroupName: pathParam(r, "name"),
		ClientID:  r.URL.Query().Get("client_id"),
	}

	roles, err := h.Engine.Current(ctx, req)
	if err != nil {
		h.Logger.Error("failed to get role mappings", zap.Error(err),
			zap.String("realm", req.Realm), zap.String("group", req.GroupName),
			zap.String("client_id", req.ClientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roles)
}

// ApplyGroupRoleMappings handles POST /api/v1/realms/{realm}/groups/{name}/role-mappings
func (h *Handler) ApplyGroupRoleMappings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	groupName := pathParam(r, "name")

	var req model.RoleMappingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	state, ok := normalizeState(req.State)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state must be present or absent")
		return
	}

	if len(req.Roles) == 0 {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "at least one role is required")
		return
	}
	for _, ref := range req.Roles {
		if ref.Name == "" && ref.ID == "" {
			writeError(w, http.StatusBadRequest, "MISSING_FIELD", "each role needs a name or an id")
			return
		}
	}

	result, err := h.Engine.Apply(ctx, rolemapping.Request{
		Realm:     realm,
		GroupName: groupName,
		ClientID:  req.ClientID,
		Roles:     req.Roles,
		State:     state,
	})
	if err != nil {
		h.Logger.Error("role mapping failed", zap.Error(err),
			zap.String("realm", realm), zap.String("group", groupName),
			zap.String("client_id", req.ClientID), zap.String("state", string(state)),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

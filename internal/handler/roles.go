package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/middleware"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/reconcile"
)

// ListRealmRoles handles GET /api/v1/realms/{realm}/roles
func (h *Handler) ListRealmRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")

	roles, err := h.KC.GetRealmRoles(ctx, realm)
	if err != nil {
		h.Logger.Error("failed to list realm roles", zap.Error(err), zap.String("realm", realm),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roles)
}

// GetRealmRole handles GET /api/v1/realms/{realm}/roles/{name}
func (h *Handler) GetRealmRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	name := pathParam(r, "name")

	role, err := h.KC.GetRealmRole(ctx, realm, name)
	if err != nil {
		h.Logger.Error("failed to get realm role", zap.Error(err),
			zap.String("realm", realm), zap.String("role", name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// ApplyRealmRole handles PUT /api/v1/realms/{realm}/roles/{name}
func (h *Handler) ApplyRealmRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	name := pathParam(r, "name")

	var req model.ApplyRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	state, ok := normalizeState(req.State)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state must be present or absent")
		return
	}

	desired := model.Role{Name: name, Description: req.Description}

	existing, err := h.KC.GetRealmRole(ctx, realm, name)
	if err != nil && !keycloak.IsNotFound(err) {
		h.Logger.Error("failed to read realm role", zap.Error(err),
			zap.String("realm", realm), zap.String("role", name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	plan := reconcile.PlanRealmRole(h.KC, realm, desired, existing, state)
	h.finishRoleApply(w, r, plan, state, existing, func() (*model.Role, error) {
		return h.KC.GetRealmRole(ctx, realm, name)
	})
}

// ListClientRoles handles GET /api/v1/realms/{realm}/clients/{clientId}/roles
func (h *Handler) ListClientRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	clientID := pathParam(r, "clientId")

	idOfClient, err := h.KC.ResolveClientID(ctx, realm, clientID)
	if err != nil {
		h.Logger.Error("failed to resolve client", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	roles, err := h.KC.GetClientRoles(ctx, realm, idOfClient)
	if err != nil {
		h.Logger.Error("failed to list client roles", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roles)
}

// GetClientRole handles GET /api/v1/realms/{realm}/clients/{clientId}/roles/{name}
func (h *Handler) GetClientRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	clientID := pathParam(r, "clientId")
	name := pathParam(r, "name")

	idOfClient, err := h.KC.ResolveClientID(ctx, realm, clientID)
	if err != nil {
		writeKeycloakError(w, err)
		return
	}

	role, err := h.KC.GetClientRole(ctx, realm, idOfClient, name)
	if err != nil {
		h.Logger.Error("failed to get client role", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID), zap.String("role", name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// ApplyClientRole handles PUT /api/v1/realms/{realm}/clients/{clientId}/roles/{name}
func (h *Handler) ApplyClientRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm := pathParam(r, "realm")
	clientID := pathParam(r, "clientId")
	name := pathParam(r, "name")

	var req model.ApplyRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	state, ok := normalizeState(req.State)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state must be present or absent")
		return
	}

	idOfClient, err := h.KC.ResolveClientID(ctx, realm, clientID)
	if err != nil {
		h.Logger.Error("failed to resolve client", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	desired := model.Role{Name: name, Description: req.Description, ClientRole: true}

	existing, err := h.KC.GetClientRole(ctx, realm, idOfClient, name)
	if err != nil && !keycloak.IsNotFound(err) {
		h.Logger.Error("failed to read client role", zap.Error(err),
			zap.String("realm", realm), zap.String("client_id", clientID), zap.String("role", name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeKeycloakError(w, err)
		return
	}

	plan := reconcile.PlanClientRole(h.KC, realm, idOfClient, desired, existing, state)
	h.finishRoleApply(w, r, plan, state, existing, func() (*model.Role, error) {
		return h.KC.GetClientRole(ctx, realm, idOfClient, name)
	})
}

// finishRoleApply executes a role plan and writes the apply envelope.
// reread fetches the end state after a present-state apply.
func (h *Handler) finishRoleApply(w http.ResponseWriter, r *http.Request, plan reconcile.Plan, state model.State, existing *model.Role, reread func() (*model.Role, error)) {
	ctx := r.Context()

	changed, err := plan.Execute(ctx, h.Logger)
	if err != nil {
		h.Logger.Error("role reconcile failed", zap.Error(err),
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
		end, err := reread()
		if err != nil {
			h.Logger.Error("failed to re-read role", zap.Error(err),
				zap.String("request_id", middleware.GetRequestID(ctx)))
			writeKeycloakError(w, err)
			return
		}
		result.EndState = end
	}

	writeJSON(w, http.StatusOK, result)
}

package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/model"
	"github.com/mhuysamen/realmsync/internal/rolemapping"
)

// Handler holds shared dependencies injected into all route handlers.
type Handler struct {
	Config *config.Config
	KC     *keycloak.Client
	Engine *rolemapping.Engine
	Logger *zap.Logger
}

// NewHandler creates a Handler with all dependencies.
func NewHandler(cfg *config.Config, kc *keycloak.Client, engine *rolemapping.Engine, logger *zap.Logger) *Handler {
	return &Handler{
		Config: cfg,
		KC:     kc,
		Engine: engine,
		Logger: logger.Named("handler"),
	}
}

// decodeJSON reads and decodes a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// pathParam extracts a path parameter from the URL.
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// normalizeState applies the present default and validates the value.
func normalizeState(s model.State) (model.State, bool) {
	if s == "" {
		return model.StatePresent, true
	}
	return s, s.Valid()
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	model.WriteJSON(w, status, v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	model.WriteError(w, status, code, message)
}

// writeKeycloakError maps the admin client error taxonomy onto HTTP
// statuses: rejected admin credentials become 502 (the fault is between
// this service and Keycloak, not the caller's), missing objects 404,
// duplicate creates 409, everything else 500.
func writeKeycloakError(w http.ResponseWriter, err error) {
	switch {
	case keycloak.IsAuth(err):
		writeError(w, http.StatusBadGateway, "KEYCLOAK_AUTH_ERROR", "keycloak admin credentials rejected")
	case keycloak.IsNotFound(err):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case keycloak.IsConflict(err):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "KEYCLOAK_ERROR", "keycloak admin call failed")
	}
}

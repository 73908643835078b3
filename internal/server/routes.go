package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/handler"
	"github.com/mhuysamen/realmsync/internal/middleware"
)

// NewRouter builds the complete HTTP handler with all routes and middleware.
func NewRouter(cfg *config.Config, h *handler.Handler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- Unauthenticated routes ---
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// --- Admin API (requires valid OIDC token + admin group membership) ---
	api := http.NewServeMux()

	// Realms
	api.HandleFunc("GET /api/v1/realms/{realm}", h.GetRealm)
	api.HandleFunc("PUT /api/v1/realms/{realm}", h.ApplyRealm)

	// Clients
	api.HandleFunc("GET /api/v1/realms/{realm}/clients/{clientId}", h.GetClient)
	api.HandleFunc("PUT /api/v1/realms/{realm}/clients/{clientId}", h.ApplyClient)

	// Groups
	api.HandleFunc("GET /api/v1/realms/{realm}/groups", h.ListGroups)
	api.HandleFunc("GET /api/v1/realms/{realm}/groups/{name}", h.GetGroup)
	api.HandleFunc("PUT /api/v1/realms/{realm}/groups/{name}", h.ApplyGroup)

	// Realm roles
	api.HandleFunc("GET /api/v1/realms/{realm}/roles", h.ListRealmRoles)
	api.HandleFunc("GET /api/v1/realms/{realm}/roles/{name}", h.GetRealmRole)
	api.HandleFunc("PUT /api/v1/realms/{realm}/roles/{name}", h.ApplyRealmRole)

	// Client roles
	api.HandleFunc("GET /api/v1/realms/{realm}/clients/{clientId}/roles", h.ListClientRoles)
	api.HandleFunc("GET /api/v1/realms/{realm}/clients/{clientId}/roles/{name}", h.GetClientRole)
	api.HandleFunc("PUT /api/v1/realms/{realm}/clients/{clientId}/roles/{name}", h.ApplyClientRole)

	// Group role mappings
	api.HandleFunc("GET /api/v1/realms/{realm}/groups/{name}/role-mappings", h.GetGroupRoleMappings)
	api.HandleFunc("POST /api/v1/realms/{realm}/groups/{name}/role-mappings", h.ApplyGroupRoleMappings)

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Chain: OIDC auth -> require admin groups -> rate limit
	apiHandler := middleware.OIDCAuth(logger, cfg.OIDCIssuerURL, cfg.OIDCClientID)(
		middleware.RequireGroups(logger, cfg.AdminGroups...)(
			rl.Limit(api),
		),
	)
	mux.Handle("/api/v1/", apiHandler)

	// --- Apply global middleware (outermost first) ---
	var root http.Handler = mux
	if cfg.CORSOrigin != "" {
		root = cors(cfg.CORSOrigin)(root)
	}
	root = middleware.Logging(logger)(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestID(root)

	return root
}

// cors adds CORS headers for browser-based callers.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

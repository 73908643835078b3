package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts all HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "realmsync_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// KeycloakRequestsTotal counts Keycloak admin API requests.
	KeycloakRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_keycloak_requests_total",
		Help: "Total number of Keycloak admin API requests",
	}, []string{"operation", "status"})

	// KeycloakErrorsTotal counts Keycloak admin API errors.
	KeycloakErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_keycloak_errors_total",
		Help: "Total number of Keycloak admin API errors",
	}, []string{"operation"})

	// ReconcileTotal counts reconcile outcomes by resource kind.
	// Outcome is one of created, updated, deleted, unchanged, error.
	ReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_reconcile_total",
		Help: "Total number of reconcile operations by kind and outcome",
	}, []string{"kind", "outcome"})

	// RoleMappingOpsTotal counts role-mapping mutations by scope and action.
	// Scope is realm or client; action is add or remove.
	RoleMappingOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_rolemapping_ops_total",
		Help: "Total number of group role-mapping mutations",
	}, []string{"scope", "action"})

	// VaultRequestsTotal counts Vault API requests.
	VaultRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_vault_requests_total",
		Help: "Total number of Vault API requests",
	}, []string{"operation", "status"})

	// VaultErrorsTotal counts Vault API errors.
	VaultErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realmsync_vault_errors_total",
		Help: "Total number of Vault API errors",
	}, []string{"operation"})
)

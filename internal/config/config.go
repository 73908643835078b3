package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the realmsync service.
type Config struct {
	Port string `json:"port"`

	// Keycloak admin connection. Either a confidential client with
	// service-account credentials or an admin username/password must be
	// configured; the client secret takes precedence when both are set.
	KeycloakURL           string `json:"keycloakUrl"`
	KeycloakAuthRealm     string `json:"keycloakAuthRealm"`
	KeycloakClientID      string `json:"-"`
	KeycloakClientSecret  string `json:"-"`
	KeycloakAdminUser     string `json:"-"`
	KeycloakAdminPassword string `json:"-"`

	// OIDC settings for authenticating callers of this service's own API.
	OIDCIssuerURL string `json:"oidcIssuerUrl"`
	OIDCClientID  string `json:"oidcClientId"`
	AdminGroups   []string `json:"-"`

	// Optional Vault secret source for the Keycloak admin credential.
	VaultAddr       string `json:"-"`
	VaultSecretPath string `json:"-"`
	VaultAuthRole   string `json:"-"`
	VaultRootCAPath string `json:"-"`

	CORSOrigin     string  `json:"-"`
	RateLimitRPS   float64 `json:"-"`
	RateLimitBurst int     `json:"-"`
}

// Load reads configuration from environment variables, applying defaults
// where appropriate, and validates that all required values are present.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  envOrDefault("PORT", "8080"),
		KeycloakURL:           envOrDefault("KEYCLOAK_URL", "http://keycloak.keycloak.svc.cluster.local:8080"),
		KeycloakAuthRealm:     envOrDefault("KEYCLOAK_AUTH_REALM", "master"),
		KeycloakClientID:      envOrDefault("KEYCLOAK_CLIENT_ID", "admin-cli"),
		KeycloakClientSecret:  os.Getenv("KEYCLOAK_CLIENT_SECRET"),
		KeycloakAdminUser:     os.Getenv("KEYCLOAK_ADMIN_USER"),
		KeycloakAdminPassword: os.Getenv("KEYCLOAK_ADMIN_PASSWORD"),
		OIDCIssuerURL:         os.Getenv("OIDC_ISSUER_URL"),
		OIDCClientID:          os.Getenv("OIDC_CLIENT_ID"),
		VaultAddr:             os.Getenv("VAULT_ADDR"),
		VaultSecretPath:       os.Getenv("VAULT_SECRET_PATH"),
		VaultAuthRole:         envOrDefault("VAULT_AUTH_ROLE", "realmsync"),
		VaultRootCAPath:       os.Getenv("VAULT_ROOT_CA_PATH"),
		CORSOrigin:            os.Getenv("CORS_ORIGIN"),
		RateLimitRPS:          envFloatOrDefault("RATE_LIMIT_RPS", 10),
		RateLimitBurst:        envIntOrDefault("RATE_LIMIT_BURST", 20),
	}

	cfg.AdminGroups = splitAndTrim(envOrDefault("ADMIN_GROUPS", "realm-admins"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasServiceAccount reports whether the admin connection should use
// client-credentials login rather than an admin password.
func (c *Config) HasServiceAccount() bool {
	return c.KeycloakClientSecret != ""
}

// UsesVault reports whether the Keycloak credential is sourced from Vault.
func (c *Config) UsesVault() bool {
	return c.VaultAddr != "" && c.VaultSecretPath != ""
}

func (c *Config) validate() error {
	var missing []string

	if c.OIDCIssuerURL == "" {
		missing = append(missing, "OIDC_ISSUER_URL")
	}
	if c.OIDCClientID == "" {
		missing = append(missing, "OIDC_CLIENT_ID")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	// A credential must be present unless Vault will supply one at startup.
	if !c.UsesVault() && c.KeycloakClientSecret == "" &&
		(c.KeycloakAdminUser == "" || c.KeycloakAdminPassword == "") {
		return fmt.Errorf("no keycloak credential configured: set KEYCLOAK_CLIENT_SECRET, " +
			"KEYCLOAK_ADMIN_USER/KEYCLOAK_ADMIN_PASSWORD, or VAULT_ADDR/VAULT_SECRET_PATH")
	}

	return nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envIntOrDefault(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func envFloatOrDefault(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

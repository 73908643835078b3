package config

import (
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads so ambient environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "KEYCLOAK_URL", "KEYCLOAK_AUTH_REALM", "KEYCLOAK_CLIENT_ID",
		"KEYCLOAK_CLIENT_SECRET", "KEYCLOAK_ADMIN_USER", "KEYCLOAK_ADMIN_PASSWORD",
		"OIDC_ISSUER_URL", "OIDC_CLIENT_ID", "ADMIN_GROUPS",
		"VAULT_ADDR", "VAULT_SECRET_PATH", "VAULT_AUTH_ROLE", "VAULT_ROOT_CA_PATH",
		"CORS_ORIGIN", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(key, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OIDC_ISSUER_URL", "https://keycloak.example.com/realms/master")
	t.Setenv("OIDC_CLIENT_ID", "realmsync")
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.KeycloakAuthRealm != "master" {
		t.Errorf("KeycloakAuthRealm = %q, want master", cfg.KeycloakAuthRealm)
	}
	if cfg.KeycloakClientID != "admin-cli" {
		t.Errorf("KeycloakClientID = %q, want admin-cli", cfg.KeycloakClientID)
	}
	if len(cfg.AdminGroups) != 1 || cfg.AdminGroups[0] != "realm-admins" {
		t.Errorf("AdminGroups = %v, want [realm-admins]", cfg.AdminGroups)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%v, want 10/20", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.HasServiceAccount() {
		t.Error("HasServiceAccount() = false with a client secret set")
	}
	if cfg.UsesVault() {
		t.Error("UsesVault() = true without vault settings")
	}
}

func TestLoad_MissingOIDCSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("KEYCLOAK_CLIENT_SECRET", "s3cret")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, key := range []string{"OIDC_ISSUER_URL", "OIDC_CLIENT_ID"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestLoad_NoCredential(t *testing.T) {
	clearEnv(t)
	t.Setenv("OIDC_ISSUER_URL", "https://keycloak.example.com/realms/master")
	t.Setenv("OIDC_CLIENT_ID", "realmsync")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error with no keycloak credential configured")
	}
}

func TestLoad_AdminPasswordCredential(t *testing.T) {
	clearEnv(t)
	t.Setenv("OIDC_ISSUER_URL", "https://keycloak.example.com/realms/master")
	t.Setenv("OIDC_CLIENT_ID", "realmsync")
	t.Setenv("KEYCLOAK_ADMIN_USER", "admin")
	t.Setenv("KEYCLOAK_ADMIN_PASSWORD", "admin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HasServiceAccount() {
		t.Error("HasServiceAccount() = true without a client secret")
	}
}

func TestLoad_VaultSatisfiesCredentialCheck(t *testing.T) {
	clearEnv(t)
	t.Setenv("OIDC_ISSUER_URL", "https://keycloak.example.com/realms/master")
	t.Setenv("OIDC_CLIENT_ID", "realmsync")
	t.Setenv("VAULT_ADDR", "https://vault.example.com")
	t.Setenv("VAULT_SECRET_PATH", "secret/data/realmsync/keycloak")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UsesVault() {
		t.Error("UsesVault() = false with address and path set")
	}
	if cfg.VaultAuthRole != "realmsync" {
		t.Errorf("VaultAuthRole = %q, want realmsync", cfg.VaultAuthRole)
	}
}

func TestLoad_AdminGroupsSplitAndTrimmed(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("ADMIN_GROUPS", "realm-admins, platform-ops ,,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"realm-admins", "platform-ops"}
	if len(cfg.AdminGroups) != len(want) {
		t.Fatalf("AdminGroups = %v, want %v", cfg.AdminGroups, want)
	}
	for i := range want {
		if cfg.AdminGroups[i] != want[i] {
			t.Errorf("AdminGroups[%d] = %q, want %q", i, cfg.AdminGroups[i], want[i])
		}
	}
}

func TestLoad_BadNumbersFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("RATE_LIMIT_RPS", "lots")
	t.Setenv("RATE_LIMIT_BURST", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%v, want defaults 10/20", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

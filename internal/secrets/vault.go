// Package secrets sources the Keycloak admin credential from Vault when
// the service is configured to avoid carrying it in the environment.
package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/metrics"
)

const (
	k8sSATokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token" //nolint:gosec // Not a credential, it's a file path
	k8sAuthPath    = "auth/kubernetes/login"
)

// Credential is the Keycloak admin secret material read from Vault.
// ClientSecret takes precedence when both are present.
type Credential struct {
	ClientSecret  string
	AdminUser     string
	AdminPassword string
}

// LoadCredential authenticates to Vault and reads the Keycloak credential
// from the configured KV path. Authentication uses VAULT_TOKEN when set,
// otherwise Kubernetes auth with the pod service-account token.
func LoadCredential(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Credential, error) {
	logger = logger.Named("vault")

	vaultCfg := vaultapi.DefaultConfig()
	vaultCfg.Address = cfg.VaultAddr
	vaultCfg.Timeout = 30 * time.Second

	if cfg.VaultRootCAPath != "" {
		tlsCfg := &vaultapi.TLSConfig{
			CACert: cfg.VaultRootCAPath,
		}
		if err := vaultCfg.ConfigureTLS(tlsCfg); err != nil {
			return nil, fmt.Errorf("configure vault TLS: %w", err)
		}
	}

	vc, err := vaultapi.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	if vc.Token() == "" {
		if err := kubernetesLogin(ctx, vc, cfg, logger); err != nil {
			return nil, err
		}
	}

	secret, err := vc.Logical().ReadWithContext(ctx, cfg.VaultSecretPath)
	if err != nil {
		metrics.VaultErrorsTotal.WithLabelValues("read_secret").Inc()
		return nil, fmt.Errorf("read vault secret %s: %w", cfg.VaultSecretPath, err)
	}
	if secret == nil || secret.Data == nil {
		metrics.VaultErrorsTotal.WithLabelValues("read_secret").Inc()
		return nil, fmt.Errorf("vault secret %s is empty", cfg.VaultSecretPath)
	}

	metrics.VaultRequestsTotal.WithLabelValues("read_secret", "success").Inc()

	data := secret.Data
	// KV v2 nests the payload under a "data" key.
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	cred := &Credential{
		ClientSecret:  stringField(data, "client_secret"),
		AdminUser:     stringField(data, "admin_user"),
		AdminPassword: stringField(data, "admin_password"),
	}

	if cred.ClientSecret == "" && (cred.AdminUser == "" || cred.AdminPassword == "") {
		return nil, fmt.Errorf("vault secret %s carries no usable keycloak credential", cfg.VaultSecretPath)
	}

	logger.Info("keycloak credential loaded from vault",
		zap.String("path", cfg.VaultSecretPath),
		zap.Bool("service_account", cred.ClientSecret != ""),
	)

	return cred, nil
}

// kubernetesLogin authenticates via the Kubernetes auth method using the
// pod's service-account token.
func kubernetesLogin(ctx context.Context, vc *vaultapi.Client, cfg *config.Config, logger *zap.Logger) error {
	jwt, err := os.ReadFile(k8sSATokenPath)
	if err != nil {
		return fmt.Errorf("read service account token: %w", err)
	}

	logger.Debug("authenticating to vault via kubernetes auth",
		zap.String("role", cfg.VaultAuthRole),
	)

	secret, err := vc.Logical().WriteWithContext(ctx, k8sAuthPath, map[string]interface{}{
		"role": cfg.VaultAuthRole,
		"jwt":  string(jwt),
	})
	if err != nil {
		metrics.VaultErrorsTotal.WithLabelValues("authenticate").Inc()
		return fmt.Errorf("vault kubernetes login: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		metrics.VaultErrorsTotal.WithLabelValues("authenticate").Inc()
		return fmt.Errorf("vault kubernetes login returned nil auth")
	}

	vc.SetToken(secret.Auth.ClientToken)
	metrics.VaultRequestsTotal.WithLabelValues("authenticate", "success").Inc()
	return nil
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

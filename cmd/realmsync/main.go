package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/handler"
	"github.com/mhuysamen/realmsync/internal/keycloak"
	"github.com/mhuysamen/realmsync/internal/rolemapping"
	"github.com/mhuysamen/realmsync/internal/secrets"
	"github.com/mhuysamen/realmsync/internal/server"
)

func main() {
	// Initialize structured JSON logger.
	logCfg := zap.NewProductionConfig()
	logCfg.EncoderConfig.TimeKey = "timestamp"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := logCfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting realmsync")

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("keycloak_url", cfg.KeycloakURL),
		zap.String("keycloak_auth_realm", cfg.KeycloakAuthRealm),
		zap.Bool("vault_credential", cfg.UsesVault()),
		zap.Strings("admin_groups", cfg.AdminGroups),
	)

	// Pull the Keycloak admin credential from Vault when configured.
	if cfg.UsesVault() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		cred, err := secrets.LoadCredential(ctx, cfg, logger)
		cancel()
		if err != nil {
			logger.Fatal("failed to load credential from vault", zap.Error(err))
		}
		if cred.ClientSecret != "" {
			cfg.KeycloakClientSecret = cred.ClientSecret
		} else {
			cfg.KeycloakAdminUser = cred.AdminUser
			cfg.KeycloakAdminPassword = cred.AdminPassword
		}
	}

	// Initialize Keycloak admin client.
	kc, err := keycloak.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize keycloak client", zap.Error(err))
	}
	logger.Info("keycloak client initialized")

	// Role-mapping engine and handlers.
	engine := rolemapping.NewEngine(kc, logger)
	h := handler.NewHandler(cfg, kc, engine, logger)

	// Create and start the server.
	srv := server.New(cfg, h, logger)

	// Graceful shutdown handling.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal.
	sig := <-shutdownCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Give outstanding requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("realmsync stopped")
}

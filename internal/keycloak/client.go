package keycloak

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"go.uber.org/zap"

	"github.com/mhuysamen/realmsync/internal/config"
	"github.com/mhuysamen/realmsync/internal/metrics"
)

// Client wraps GoCloak and manages admin token lifecycle. Depending on
// configuration it logs in either with service-account credentials or with
// an admin username and password against the auth realm.
type Client struct {
	gc          *gocloak.GoCloak
	cfg         *config.Config
	logger      *zap.Logger
	mu          sync.RWMutex
	token       *gocloak.JWT
	tokenExpiry time.Time
}

// NewClient creates a new Keycloak admin client and performs an initial login.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	gc := gocloak.NewClient(cfg.KeycloakURL)

	c := &Client{
		gc:     gc,
		cfg:    cfg,
		logger: logger.Named("keycloak"),
	}

	if err := c.refreshToken(context.Background()); err != nil {
		return nil, fmt.Errorf("initial keycloak login: %w", err)
	}

	return c, nil
}

// Token returns a valid access token, refreshing if needed.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != nil && time.Now().Before(c.tokenExpiry) {
		tok := c.token.AccessToken
		c.mu.RUnlock()
		return tok, nil
	}
	c.mu.RUnlock()

	if err := c.refreshToken(ctx); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.AccessToken, nil
}

func (c *Client) refreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if c.token != nil && time.Now().Before(c.tokenExpiry) {
		return nil
	}

	var (
		token *gocloak.JWT
		err   error
	)

	if c.cfg.HasServiceAccount() {
		c.logger.Debug("logging in with service account",
			zap.String("client_id", c.cfg.KeycloakClientID),
			zap.String("auth_realm", c.cfg.KeycloakAuthRealm),
		)
		token, err = c.gc.LoginClient(ctx, c.cfg.KeycloakClientID, c.cfg.KeycloakClientSecret, c.cfg.KeycloakAuthRealm)
	} else {
		c.logger.Debug("logging in with admin credentials",
			zap.String("username", c.cfg.KeycloakAdminUser),
			zap.String("auth_realm", c.cfg.KeycloakAuthRealm),
		)
		token, err = c.gc.LoginAdmin(ctx, c.cfg.KeycloakAdminUser, c.cfg.KeycloakAdminPassword, c.cfg.KeycloakAuthRealm)
	}
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("login").Inc()
		return classify("login", "", fmt.Errorf("keycloak admin login: %w", err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("login", "success").Inc()

	c.token = token
	// Set expiry with a 30-second buffer to avoid using a nearly-expired token.
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-30) * time.Second)

	c.logger.Info("keycloak token refreshed", zap.Time("expires", c.tokenExpiry))
	return nil
}

// GoCloak returns the underlying GoCloak client for direct access.
func (c *Client) GoCloak() *gocloak.GoCloak {
	return c.gc
}

// AuthRealm returns the realm the admin session authenticates against.
func (c *Client) AuthRealm() string {
	return c.cfg.KeycloakAuthRealm
}

// Healthy checks connectivity by fetching the auth realm.
func (c *Client) Healthy(ctx context.Context) error {
	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	_, err = c.gc.GetRealm(ctx, token, c.cfg.KeycloakAuthRealm)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("health_check").Inc()
		return fmt.Errorf("get realm: %w", err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("health_check", "success").Inc()
	return nil
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

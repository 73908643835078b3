package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/mhuysamen/realmsync/internal/metrics"
	"github.com/mhuysamen/realmsync/internal/model"
)

// GetRealm returns a realm by name.
func (c *Client) GetRealm(ctx context.Context, realm string) (*model.Realm, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	rep, err := c.gc.GetRealm(ctx, token, realm)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_realm").Inc()
		return nil, classify("realm", realm, fmt.Errorf("get realm %s: %w", realm, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_realm", "success").Inc()

	r := mapRealm(rep)
	return &r, nil
}

// CreateRealm creates a new realm.
func (c *Client) CreateRealm(ctx context.Context, realm model.Realm) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	rep := gocloak.RealmRepresentation{
		Realm:       gocloak.StringP(realm.Realm),
		DisplayName: gocloak.StringP(realm.DisplayName),
		Enabled:     gocloak.BoolP(realm.Enabled),
	}

	if _, err := c.gc.CreateRealm(ctx, token, rep); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("create_realm").Inc()
		return classify("realm", realm.Realm, fmt.Errorf("create realm %s: %w", realm.Realm, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("create_realm", "success").Inc()
	return nil
}

// UpdateRealm updates a realm's display name and enabled flag.
func (c *Client) UpdateRealm(ctx context.Context, realm model.Realm) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	existing, err := c.gc.GetRealm(ctx, token, realm.Realm)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_realm").Inc()
		return classify("realm", realm.Realm, fmt.Errorf("get realm for update: %w", err))
	}

	existing.DisplayName = gocloak.StringP(realm.DisplayName)
	existing.Enabled = gocloak.BoolP(realm.Enabled)

	if err := c.gc.UpdateRealm(ctx, token, *existing); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("update_realm").Inc()
		return classify("realm", realm.Realm, fmt.Errorf("update realm %s: %w", realm.Realm, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("update_realm", "success").Inc()
	return nil
}

// DeleteRealm removes a realm. Deletion cascades to all clients, groups,
// and roles inside it.
func (c *Client) DeleteRealm(ctx context.Context, realm string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.DeleteRealm(ctx, token, realm); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("delete_realm").Inc()
		return classify("realm", realm, fmt.Errorf("delete realm %s: %w", realm, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("delete_realm", "success").Inc()
	return nil
}

func mapRealm(rep *gocloak.RealmRepresentation) model.Realm {
	return model.Realm{
		Realm:       derefString(rep.Realm),
		DisplayName: derefString(rep.DisplayName),
		Enabled:     derefBool(rep.Enabled),
	}
}

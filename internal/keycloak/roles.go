package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/mhuysamen/realmsync/internal/metrics"
	"github.com/mhuysamen/realmsync/internal/model"
)

// GetRealmRoles returns all realm-level roles.
func (c *Client) GetRealmRoles(ctx context.Context, realm string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetRealmRoles(ctx, token, realm, gocloak.GetRoleParams{})
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_realm_roles").Inc()
		return nil, classify("role", "", fmt.Errorf("get realm roles in %s: %w", realm, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_realm_roles", "success").Inc()
	return mapRoles(roles), nil
}

// GetRealmRole returns a single realm role by name.
func (c *Client) GetRealmRole(ctx context.Context, realm, roleName string) (*model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	r, err := c.gc.GetRealmRole(ctx, token, realm, roleName)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_realm_role").Inc()
		return nil, classify("role", roleName, fmt.Errorf("get realm role %s: %w", roleName, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_realm_role", "success").Inc()

	role := mapRole(r)
	return &role, nil
}

// CreateRealmRole creates a new realm-level role.
func (c *Client) CreateRealmRole(ctx context.Context, realm, name, description string) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	role := gocloak.Role{
		Name:        gocloak.StringP(name),
		Description: gocloak.StringP(description),
	}

	roleID, err := c.gc.CreateRealmRole(ctx, token, realm, role)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("create_realm_role").Inc()
		return "", classify("role", name, fmt.Errorf("create realm role %s: %w", name, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("create_realm_role", "success").Inc()
	return roleID, nil
}

// UpdateRealmRole updates a realm role's description.
func (c *Client) UpdateRealmRole(ctx context.Context, realm, roleName, description string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	existing, err := c.gc.GetRealmRole(ctx, token, realm, roleName)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_realm_role").Inc()
		return classify("role", roleName, fmt.Errorf("get role for update: %w", err))
	}

	existing.Description = gocloak.StringP(description)

	if err := c.gc.UpdateRealmRole(ctx, token, realm, roleName, *existing); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("update_realm_role").Inc()
		return classify("role", roleName, fmt.Errorf("update realm role %s: %w", roleName, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("update_realm_role", "success").Inc()
	return nil
}

// DeleteRealmRole removes a realm role by name.
func (c *Client) DeleteRealmRole(ctx context.Context, realm, roleName string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.DeleteRealmRole(ctx, token, realm, roleName); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("delete_realm_role").Inc()
		return classify("role", roleName, fmt.Errorf("delete realm role %s: %w", roleName, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("delete_realm_role", "success").Inc()
	return nil
}

// GetClientRoles returns all roles owned by a client. The client is
// addressed by its server-assigned UUID.
func (c *Client) GetClientRoles(ctx context.Context, realm, idOfClient string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetClientRoles(ctx, token, realm, idOfClient, gocloak.GetRoleParams{})
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_client_roles").Inc()
		return nil, classify("role", "", fmt.Errorf("get client roles for %s: %w", idOfClient, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_client_roles", "success").Inc()
	return mapRoles(roles), nil
}

// GetClientRole returns a single client-scoped role by name.
func (c *Client) GetClientRole(ctx context.Context, realm, idOfClient, roleName string) (*model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	r, err := c.gc.GetClientRole(ctx, token, realm, idOfClient, roleName)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_client_role").Inc()
		return nil, classify("role", roleName, fmt.Errorf("get client role %s: %w", roleName, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_client_role", "success").Inc()

	role := mapRole(r)
	return &role, nil
}

// CreateClientRole creates a role owned by the given client.
func (c *Client) CreateClientRole(ctx context.Context, realm, idOfClient, name, description string) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	role := gocloak.Role{
		Name:        gocloak.StringP(name),
		Description: gocloak.StringP(description),
	}

	roleID, err := c.gc.CreateClientRole(ctx, token, realm, idOfClient, role)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("create_client_role").Inc()
		return "", classify("role", name, fmt.Errorf("create client role %s: %w", name, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("create_client_role", "success").Inc()
	return roleID, nil
}

// UpdateClientRole updates a client role's description.
func (c *Client) UpdateClientRole(ctx context.Context, realm, idOfClient, roleName, description string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	existing, err := c.gc.GetClientRole(ctx, token, realm, idOfClient, roleName)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_client_role").Inc()
		return classify("role", roleName, fmt.Errorf("get client role for update: %w", err))
	}

	existing.Description = gocloak.StringP(description)

	if err := c.gc.UpdateRole(ctx, token, realm, idOfClient, *existing); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("update_client_role").Inc()
		return classify("role", roleName, fmt.Errorf("update client role %s: %w", roleName, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("update_client_role", "success").Inc()
	return nil
}

// DeleteClientRole removes a client role by name.
func (c *Client) DeleteClientRole(ctx context.Context, realm, idOfClient, roleName string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.DeleteClientRole(ctx, token, realm, idOfClient, roleName); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("delete_client_role").Inc()
		return classify("role", roleName, fmt.Errorf("delete client role %s: %w", roleName, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("delete_client_role", "success").Inc()
	return nil
}

func mapRoles(roles []*gocloak.Role) []model.Role {
	result := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		result = append(result, mapRole(r))
	}
	return result
}

func mapRole(r *gocloak.Role) model.Role {
	return model.Role{
		ID:          derefString(r.ID),
		Name:        derefString(r.Name),
		Description: derefString(r.Description),
		Composite:   derefBool(r.Composite),
		ClientRole:  derefBool(r.ClientRole),
		ContainerID: derefString(r.ContainerID),
	}
}

package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/mhuysamen/realmsync/internal/metrics"
	"github.com/mhuysamen/realmsync/internal/model"
)

// GetAssignedRealmGroupRoles returns the realm-level roles currently
// mapped to a group.
func (c *Client) GetAssignedRealmGroupRoles(ctx context.Context, realm, groupID string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetRealmRolesByGroupID(ctx, token, realm, groupID)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_group_realm_rolemappings").Inc()
		return nil, classify("group", groupID, fmt.Errorf("get realm rolemappings for group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_group_realm_rolemappings", "success").Inc()
	return mapRoles(roles), nil
}

// GetAvailableRealmGroupRoles returns the realm-level roles the server
// reports as assignable to a group.
func (c *Client) GetAvailableRealmGroupRoles(ctx context.Context, realm, groupID string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetAvailableRealmRolesByGroupID(ctx, token, realm, groupID)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_group_available_realm_roles").Inc()
		return nil, classify("group", groupID, fmt.Errorf("get available realm roles for group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_group_available_realm_roles", "success").Inc()
	return mapRoles(roles), nil
}

// GetAssignedClientGroupRoles returns the roles of one client currently
// mapped to a group.
func (c *Client) GetAssignedClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetClientRolesByGroupID(ctx, token, realm, idOfClient, groupID)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_group_client_rolemappings").Inc()
		return nil, classify("group", groupID, fmt.Errorf("get client rolemappings for group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_group_client_rolemappings", "success").Inc()
	return mapRoles(roles), nil
}

// GetAvailableClientGroupRoles returns the roles of one client the server
// reports as assignable to a group.
func (c *Client) GetAvailableClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetAvailableClientRolesByGroupID(ctx, token, realm, idOfClient, groupID)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_group_available_client_roles").Inc()
		return nil, classify("group", groupID, fmt.Errorf("get available client roles for group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_group_available_client_roles", "success").Inc()
	return mapRoles(roles), nil
}

// AddRealmGroupRoles maps realm-level roles onto a group.
func (c *Client) AddRealmGroupRoles(ctx context.Context, realm, groupID string, roles []model.Role) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.AddRealmRoleToGroup(ctx, token, realm, groupID, toGocloakRoles(roles)); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("add_group_realm_roles").Inc()
		return classify("group", groupID, fmt.Errorf("add realm roles to group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("add_group_realm_roles", "success").Inc()
	metrics.RoleMappingOpsTotal.WithLabelValues("realm", "add").Inc()
	return nil
}

// RemoveRealmGroupRoles unmaps realm-level roles from a group.
func (c *Client) RemoveRealmGroupRoles(ctx context.Context, realm, groupID string, roles []model.Role) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.DeleteRealmRoleFromGroup(ctx, token, realm, groupID, toGocloakRoles(roles)); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("remove_group_realm_roles").Inc()
		return classify("group", groupID, fmt.Errorf("remove realm roles from group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("remove_group_realm_roles", "success").Inc()
	metrics.RoleMappingOpsTotal.WithLabelValues("realm", "remove").Inc()
	return nil
}

// AddClientGroupRoles maps one client's roles onto a group.
func (c *Client) AddClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string, roles []model.Role) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.AddClientRolesToGroup(ctx, token, realm, idOfClient, groupID, toGocloakRoles(roles)); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("add_group_client_roles").Inc()
		return classify("group", groupID, fmt.Errorf("add client roles to group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("add_group_client_roles", "success").Inc()
	metrics.RoleMappingOpsTotal.WithLabelValues("client", "add").Inc()
	return nil
}

// RemoveClientGroupRoles unmaps one client's roles from a group.
func (c *Client) RemoveClientGroupRoles(ctx context.Context, realm, groupID, idOfClient string, roles []model.Role) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.DeleteClientRoleFromGroup(ctx, token, realm, idOfClient, groupID, toGocloakRoles(roles)); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("remove_group_client_roles").Inc()
		return classify("group", groupID, fmt.Errorf("remove client roles from group %s: %w", groupID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("remove_group_client_roles", "success").Inc()
	metrics.RoleMappingOpsTotal.WithLabelValues("client", "remove").Inc()
	return nil
}

// toGocloakRoles converts mapping entries to the representation the admin
// API expects. Only id and name are sent; the server resolves the rest.
func toGocloakRoles(roles []model.Role) []gocloak.Role {
	out := make([]gocloak.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, gocloak.Role{
			ID:   gocloak.StringP(r.ID),
			Name: gocloak.StringP(r.Name),
		})
	}
	return out
}

package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/mhuysamen/realmsync/internal/metrics"
	"github.com/mhuysamen/realmsync/internal/model"
)

// GetClientByClientID looks up a client by its caller-chosen clientId.
// The admin API only addresses clients by their server-assigned UUID, so
// this lists candidates and matches on the exact clientId.
func (c *Client) GetClientByClientID(ctx context.Context, realm, clientID string) (*model.Client, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	candidates, err := c.gc.GetClients(ctx, token, realm, gocloak.GetClientsParams{
		ClientID: gocloak.StringP(clientID),
	})
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_clients").Inc()
		return nil, classify("client", clientID, fmt.Errorf("list clients in %s: %w", realm, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_clients", "success").Inc()

	for _, cand := range candidates {
		if derefString(cand.ClientID) == clientID {
			cl := mapClient(cand)
			return &cl, nil
		}
	}

	return nil, &NotFoundError{Kind: "client", Name: clientID,
		Err: fmt.Errorf("no client with clientId %q in realm %s", clientID, realm)}
}

// ResolveClientID translates a clientId into the server-assigned UUID.
func (c *Client) ResolveClientID(ctx context.Context, realm, clientID string) (string, error) {
	cl, err := c.GetClientByClientID(ctx, realm, clientID)
	if err != nil {
		return "", err
	}
	return cl.ID, nil
}

// CreateClient registers a new client in the realm and returns its UUID.
func (c *Client) CreateClient(ctx context.Context, realm string, client model.Client) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	rep := gocloak.Client{
		ClientID:               gocloak.StringP(client.ClientID),
		Name:                   gocloak.StringP(client.Name),
		Description:            gocloak.StringP(client.Description),
		Enabled:                gocloak.BoolP(client.Enabled),
		ServiceAccountsEnabled: gocloak.BoolP(client.ServiceAccountsEnabled),
	}

	id, err := c.gc.CreateClient(ctx, token, realm, rep)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("create_client").Inc()
		return "", classify("client", client.ClientID, fmt.Errorf("create client %s: %w", client.ClientID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("create_client", "success").Inc()
	return id, nil
}

// UpdateClient updates a client's mutable fields. The client is addressed
// by its server-assigned UUID.
func (c *Client) UpdateClient(ctx context.Context, realm string, client model.Client) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	existing, err := c.gc.GetClient(ctx, token, realm, client.ID)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_client").Inc()
		return classify("client", client.ClientID, fmt.Errorf("get client for update: %w", err))
	}

	existing.Name = gocloak.StringP(client.Name)
	existing.Description = gocloak.StringP(client.Description)
	existing.Enabled = gocloak.BoolP(client.Enabled)
	existing.ServiceAccountsEnabled = gocloak.BoolP(client.ServiceAccountsEnabled)

	if err := c.gc.UpdateClient(ctx, token, realm, *existing); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("update_client").Inc()
		return classify("client", client.ClientID, fmt.Errorf("update client %s: %w", client.ClientID, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("update_client", "success").Inc()
	return nil
}

// DeleteClient removes a client by its server-assigned UUID.
func (c *Client) DeleteClient(ctx context.Context, realm, id string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.gc.DeleteClient(ctx, token, realm, id); err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("delete_client").Inc()
		return classify("client", id, fmt.Errorf("delete client %s: %w", id, err))
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("delete_client", "success").Inc()
	return nil
}

func mapClient(rep *gocloak.Client) model.Client {
	return model.Client{
		ID:                     derefString(rep.ID),
		ClientID:               derefString(rep.ClientID),
		Name:                   derefString(rep.Name),
		Description:            derefString(rep.Description),
		Enabled:                derefBool(rep.Enabled),
		ServiceAccountsEnabled: derefBool(rep.ServiceAccountsEnabled),
	}
}

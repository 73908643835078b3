package model

// Client represents a registered application/service within a realm.
// ID is the server-assigned UUID; ClientID is the caller-chosen identifier,
// unique within the realm.
type Client struct {
	ID                     string `json:"id"`
	ClientID               string `json:"client_id"`
	Name                   string `json:"name,omitempty"`
	Description            string `json:"description,omitempty"`
	Enabled                bool   `json:"enabled"`
	ServiceAccountsEnabled bool   `json:"service_accounts_enabled"`
}

// ApplyClientRequest is the payload for applying a client.
type ApplyClientRequest struct {
	State                  State  `json:"state,omitempty"`
	Name                   string `json:"name,omitempty"`
	Description            string `json:"description,omitempty"`
	Enabled                *bool  `json:"enabled,omitempty"`
	ServiceAccountsEnabled *bool  `json:"service_accounts_enabled,omitempty"`
}

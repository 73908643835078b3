package model

// State expresses the desired presence of an administrative object.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// Valid reports whether s is a recognized state value.
func (s State) Valid() bool {
	return s == StatePresent || s == StateAbsent
}

// Realm represents a Keycloak realm, the root container for clients,
// groups and roles. Deleting a realm cascades to everything inside it.
type Realm struct {
	Realm       string `json:"realm"`
	DisplayName string `json:"display_name,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// ApplyRealmRequest is the payload for applying a realm.
type ApplyRealmRequest struct {
	State       State  `json:"state,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

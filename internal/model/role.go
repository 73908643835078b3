package model

// Role represents a Keycloak role, scoped either to the realm or to one
// client. ClientRole discriminates the two: a realm role and a client role
// sharing a name are distinct.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId,omitempty"`
}

// Identity returns the comparison key for role-mapping operations:
// the (name, clientRole) pair.
func (r Role) Identity() RoleIdentity {
	return RoleIdentity{Name: r.Name, ClientRole: r.ClientRole}
}

// RoleIdentity identifies a role for set comparison. Server-assigned ids
// are deliberately excluded.
type RoleIdentity struct {
	Name       string
	ClientRole bool
}

// RoleRef selects a role by name, id, or both. When one field is missing
// it is resolved remotely; supplying the id saves a lookup.
type RoleRef struct {
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

// ApplyRoleRequest is the payload for applying a realm or client role.
type ApplyRoleRequest struct {
	State       State  `json:"state,omitempty"`
	Description string `json:"description,omitempty"`
}

// RoleMappingRequest is the payload for the group role-mapping operation.
// ClientID selects client-scoped roles; when empty the roles are
// realm-scoped.
type RoleMappingRequest struct {
	State    State     `json:"state,omitempty"`
	ClientID string    `json:"client_id,omitempty"`
	Roles    []RoleRef `json:"roles"`
}

package model

// Group represents a Keycloak group. The ID is server-assigned; the name
// is the human identifier used for lookups.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// ApplyGroupRequest is the payload for applying a group.
type ApplyGroupRequest struct {
	State State `json:"state,omitempty"`
}

package reconcile

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mhuysamen/realmsync/internal/model"
)

// RealmAPI is the slice of the admin client realm planning needs.
type RealmAPI interface {
	CreateRealm(ctx context.Context, realm model.Realm) error
	UpdateRealm(ctx context.Context, realm model.Realm) error
	DeleteRealm(ctx context.Context, realm string) error
}

// ClientAPI is the slice of the admin client client planning needs.
type ClientAPI interface {
	CreateClient(ctx context.Context, realm string, client model.Client) (string, error)
	UpdateClient(ctx context.Context, realm string, client model.Client) error
	DeleteClient(ctx context.Context, realm, id string) error
}

// GroupAPI is the slice of the admin client group planning needs.
type GroupAPI interface {
	CreateGroup(ctx context.Context, realm, name string) (string, error)
	DeleteGroup(ctx context.Context, realm, groupID string) error
}

// RealmRoleAPI is the slice of the admin client realm-role planning needs.
type RealmRoleAPI interface {
	CreateRealmRole(ctx context.Context, realm, name, description string) (string, error)
	UpdateRealmRole(ctx context.Context, realm, roleName, description string) error
	DeleteRealmRole(ctx context.Context, realm, roleName string) error
}

// ClientRoleAPI is the slice of the admin client client-role planning needs.
type ClientRoleAPI interface {
	CreateClientRole(ctx context.Context, realm, idOfClient, name, description string) (string, error)
	UpdateClientRole(ctx context.Context, realm, idOfClient, roleName, description string) error
	DeleteClientRole(ctx context.Context, realm, idOfClient, roleName string) error
}

// Equality between desired and existing objects ignores server-assigned
// fields; those never appear in a desired description.
var (
	clientIgnore = cmpopts.IgnoreFields(model.Client{}, "ID")
	roleIgnore   = cmpopts.IgnoreFields(model.Role{}, "ID", "ContainerID", "Composite", "ClientRole")
)

// PlanRealm computes the action converging a realm to the desired state.
// existing is nil when the realm does not exist remotely.
func PlanRealm(api RealmAPI, desired model.Realm, existing *model.Realm, state model.State) Plan {
	var p Plan
	name := desired.Realm

	switch state {
	case model.StateAbsent:
		if existing == nil {
			p.add(noop("realm", name, "realm already absent"))
			return p
		}
		p.add(Action{
			Op: OpDelete, Kind: "realm", Name: name,
			Msg: fmt.Sprintf("delete realm %s", name),
			Run: func(ctx context.Context) error { return api.DeleteRealm(ctx, name) },
		})
	default:
		if existing == nil {
			p.add(Action{
				Op: OpCreate, Kind: "realm", Name: name,
				Msg: fmt.Sprintf("create realm %s", name),
				Run: func(ctx context.Context) error { return api.CreateRealm(ctx, desired) },
			})
			return p
		}
		if cmp.Equal(desired, *existing) {
			p.add(noop("realm", name, "realm already in desired state"))
			return p
		}
		p.add(Action{
			Op: OpUpdate, Kind: "realm", Name: name,
			Msg: fmt.Sprintf("update realm %s", name),
			Run: func(ctx context.Context) error { return api.UpdateRealm(ctx, desired) },
		})
	}
	return p
}

// PlanClient computes the action converging a client to the desired state.
func PlanClient(api ClientAPI, realm string, desired model.Client, existing *model.Client, state model.State) Plan {
	var p Plan
	name := desired.ClientID

	switch state {
	case model.StateAbsent:
		if existing == nil {
			p.add(noop("client", name, "client already absent"))
			return p
		}
		id := existing.ID
		p.add(Action{
			Op: OpDelete, Kind: "client", Name: name,
			Msg: fmt.Sprintf("delete client %s in realm %s", name, realm),
			Run: func(ctx context.Context) error { return api.DeleteClient(ctx, realm, id) },
		})
	default:
		if existing == nil {
			p.add(Action{
				Op: OpCreate, Kind: "client", Name: name,
				Msg: fmt.Sprintf("create client %s in realm %s", name, realm),
				Run: func(ctx context.Context) error {
					_, err := api.CreateClient(ctx, realm, desired)
					return err
				},
			})
			return p
		}
		if cmp.Equal(desired, *existing, clientIgnore) {
			p.add(noop("client", name, "client already in desired state"))
			return p
		}
		// Carry the server-assigned id into the update.
		updated := desired
		updated.ID = existing.ID
		p.add(Action{
			Op: OpUpdate, Kind: "client", Name: name,
			Msg: fmt.Sprintf("update client %s in realm %s", name, realm),
			Run: func(ctx context.Context) error { return api.UpdateClient(ctx, realm, updated) },
		})
	}
	return p
}

// PlanGroup computes the action converging a group to the desired state.
// Groups carry no mutable fields beyond their identity, so present+found
// is always a no-op.
func PlanGroup(api GroupAPI, realm, name string, existing *model.Group, state model.State) Plan {
	var p Plan

	switch state {
	case model.StateAbsent:
		if existing == nil {
			p.add(noop("group", name, "group already absent"))
			return p
		}
		id := existing.ID
		p.add(Action{
			Op: OpDelete, Kind: "group", Name: name,
			Msg: fmt.Sprintf("delete group %s in realm %s", name, realm),
			Run: func(ctx context.Context) error { return api.DeleteGroup(ctx, realm, id) },
		})
	default:
		if existing != nil {
			p.add(noop("group", name, "group already in desired state"))
			return p
		}
		p.add(Action{
			Op: OpCreate, Kind: "group", Name: name,
			Msg: fmt.Sprintf("create group %s in realm %s", name, realm),
			Run: func(ctx context.Context) error {
				_, err := api.CreateGroup(ctx, realm, name)
				return err
			},
		})
	}
	return p
}

// PlanRealmRole computes the action converging a realm role to the
// desired state.
func PlanRealmRole(api RealmRoleAPI, realm string, desired model.Role, existing *model.Role, state model.State) Plan {
	var p Plan
	name := desired.Name

	switch state {
	case model.StateAbsent:
		if existing == nil {
			p.add(noop("realm_role", name, "role already absent"))
			return p
		}
		p.add(Action{
			Op: OpDelete, Kind: "realm_role", Name: name,
			Msg: fmt.Sprintf("delete realm role %s in realm %s", name, realm),
			Run: func(ctx context.Context) error { return api.DeleteRealmRole(ctx, realm, name) },
		})
	default:
		if existing == nil {
			p.add(Action{
				Op: OpCreate, Kind: "realm_role", Name: name,
				Msg: fmt.Sprintf("create realm role %s in realm %s", name, realm),
				Run: func(ctx context.Context) error {
					_, err := api.CreateRealmRole(ctx, realm, name, desired.Description)
					return err
				},
			})
			return p
		}
		if cmp.Equal(desired, *existing, roleIgnore) {
			p.add(noop("realm_role", name, "role already in desired state"))
			return p
		}
		p.add(Action{
			Op: OpUpdate, Kind: "realm_role", Name: name,
			Msg: fmt.Sprintf("update realm role %s in realm %s", name, realm),
			Run: func(ctx context.Context) error {
				return api.UpdateRealmRole(ctx, realm, name, desired.Description)
			},
		})
	}
	return p
}

// PlanClientRole computes the action converging a client-scoped role to
// the desired state. idOfClient is the owning client's server-assigned id.
func PlanClientRole(api ClientRoleAPI, realm, idOfClient string, desired model.Role, existing *model.Role, state model.State) Plan {
	var p Plan
	name := desired.Name

	switch state {
	case model.StateAbsent:
		if existing == nil {
			p.add(noop("client_role", name, "role already absent"))
			return p
		}
		p.add(Action{
			Op: OpDelete, Kind: "client_role", Name: name,
			Msg: fmt.Sprintf("delete client role %s in realm %s", name, realm),
			Run: func(ctx context.Context) error { return api.DeleteClientRole(ctx, realm, idOfClient, name) },
		})
	default:
		if existing == nil {
			p.add(Action{
				Op: OpCreate, Kind: "client_role", Name: name,
				Msg: fmt.Sprintf("create client role %s in realm %s", name, realm),
				Run: func(ctx context.Context) error {
					_, err := api.CreateClientRole(ctx, realm, idOfClient, name, desired.Description)
					return err
				},
			})
			return p
		}
		if cmp.Equal(desired, *existing, roleIgnore) {
			p.add(noop("client_role", name, "role already in desired state"))
			return p
		}
		p.add(Action{
			Op: OpUpdate, Kind: "client_role", Name: name,
			Msg: fmt.Sprintf("update client role %s in realm %s", name, realm),
			Run: func(ctx context.Context) error {
				return api.UpdateClientRole(ctx, realm, idOfClient, name, desired.Description)
			},
		})
	}
	return p
}

func noop(kind, name, msg string) Action {
	return Action{Op: OpNone, Kind: kind, Name: name, Msg: msg}
}
